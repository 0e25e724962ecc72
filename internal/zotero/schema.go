// ABOUTME: Zotero schema endpoints
// ABOUTME: Item types, per-type fields, and API key introspection
package zotero

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// ItemType is one entry from the global item-type list.
type ItemType struct {
	ItemType  string `json:"itemType"`
	Localized string `json:"localized"`
}

// ItemField is one field supported by an item type.
type ItemField struct {
	Field     string `json:"field"`
	Localized string `json:"localized"`
}

// KeyInfo describes an API key and the account it belongs to.
type KeyInfo struct {
	Key      string          `json:"key"`
	UserID   int64           `json:"userID"`
	Username string          `json:"username"`
	Access   json.RawMessage `json:"access,omitempty"`
}

// ItemTypes lists all item types the API knows about. Global endpoint.
func (c *Client) ItemTypes(ctx context.Context) ([]ItemType, error) {
	var types []ItemType
	if err := c.getJSON(ctx, "/itemTypes", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// ItemTypeFields lists the fields valid for one item type. Global endpoint.
func (c *Client) ItemTypeFields(ctx context.Context, itemType string) ([]ItemField, error) {
	q := url.Values{}
	q.Set("itemType", itemType)

	var fields []ItemField
	if err := c.getJSON(ctx, "/itemTypeFields", q, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// VerifyKey checks an API key against the live API and returns the account
// it belongs to. Standalone because it needs no library coordinate.
func VerifyKey(ctx context.Context, baseURL, apiKey string) (*KeyInfo, error) {
	client := NewClient(apiKey, "users", "0", &Options{BaseURL: baseURL})

	req, err := client.newRequest(ctx, http.MethodGet, "/keys/current", nil, nil)
	if err != nil {
		return nil, err
	}

	data, err := client.do(req)
	if err != nil {
		return nil, err
	}

	var info KeyInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
