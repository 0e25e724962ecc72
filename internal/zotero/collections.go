// ABOUTME: Collection operations against the Zotero API
// ABOUTME: Listing and creating collections, with the odd parentCollection encoding
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Collection is a named grouping of items.
type Collection struct {
	Key     string         `json:"key"`
	Version int            `json:"version"`
	Data    CollectionData `json:"data"`
}

// CollectionData is the writable part of a collection.
type CollectionData struct {
	Key              string    `json:"key,omitempty"`
	Name             string    `json:"name"`
	ParentCollection ParentKey `json:"parentCollection"`
}

// ParentKey is a collection's parent reference. The API encodes "no
// parent" as the JSON literal false instead of null or an empty string.
type ParentKey string

func (p *ParentKey) UnmarshalJSON(data []byte) error {
	if string(data) == "false" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid parentCollection value %s: %w", data, err)
	}
	*p = ParentKey(s)
	return nil
}

func (p ParentKey) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("false"), nil
	}
	return json.Marshal(string(p))
}

// Collections lists all collections in the library.
func (c *Client) Collections(ctx context.Context) ([]Collection, error) {
	var collections []Collection
	if err := c.getJSON(ctx, c.libraryPath("/collections"), nil, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// CreateCollection creates a collection, optionally nested under parentKey.
func (c *Client) CreateCollection(ctx context.Context, name string, parentKey string) (*WriteResponse, error) {
	payload := []CollectionData{{Name: name, ParentCollection: ParentKey(parentKey)}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collection: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.libraryPath("/collections"), nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Zotero-Write-Token", writeToken())

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp WriteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode write response: %w", err)
	}
	return &resp, nil
}
