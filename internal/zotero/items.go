// ABOUTME: Item operations against the Zotero API
// ABOUTME: Search, read, citation rendering, and versioned writes
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Item is a bibliographic record as returned by the API. Data carries the
// full field map so callers see exactly what the library holds.
type Item struct {
	Key      string          `json:"key"`
	Version  int             `json:"version"`
	Library  json.RawMessage `json:"library,omitempty"`
	Meta     ItemMeta        `json:"meta,omitempty"`
	Data     map[string]any  `json:"data"`
	Citation string          `json:"citation,omitempty"`
}

// ItemMeta is the API's derived metadata block.
type ItemMeta struct {
	CreatorSummary string `json:"creatorSummary,omitempty"`
	ParsedDate     string `json:"parsedDate,omitempty"`
	NumChildren    int    `json:"numChildren,omitempty"`
}

// SearchOptions narrow an item listing. Zero fields are omitted from the
// request so the API applies its own defaults.
type SearchOptions struct {
	Query     string
	Limit     int
	Sort      string
	Direction string
}

func (o SearchOptions) values() url.Values {
	q := url.Values{}
	if o.Query != "" {
		q.Set("q", o.Query)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Direction != "" {
		q.Set("direction", o.Direction)
	}
	return q
}

// WriteResponse is the envelope the API returns for item and collection
// writes. Keys of the maps are the zero-based indexes of the submitted
// objects, as strings.
type WriteResponse struct {
	Successful map[string]json.RawMessage `json:"successful"`
	Success    map[string]string          `json:"success"`
	Unchanged  map[string]string          `json:"unchanged"`
	Failed     map[string]WriteError      `json:"failed"`
}

// WriteError describes one failed object inside a write response.
type WriteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FirstKey returns the key of the first successfully written object, or ""
// if nothing succeeded.
func (r *WriteResponse) FirstKey() string {
	if key, ok := r.Success["0"]; ok {
		return key
	}
	return ""
}

// FirstVersion returns the version of the first successfully written
// object, or 0 if nothing succeeded. The successful entries are the full
// created objects, so the version is read from their top level.
func (r *WriteResponse) FirstVersion() int {
	raw, ok := r.Successful["0"]
	if !ok {
		return 0
	}
	var obj struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0
	}
	return obj.Version
}

// FirstError returns the error for the first failed object, or nil.
func (r *WriteResponse) FirstError() error {
	if we, ok := r.Failed["0"]; ok {
		return &APIError{StatusCode: we.Code, Message: we.Message}
	}
	return nil
}

// Items lists items in the library, filtered by opts.
func (c *Client) Items(ctx context.Context, opts SearchOptions) ([]Item, error) {
	var items []Item
	if err := c.getJSON(ctx, c.libraryPath("/items"), opts.values(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// TopItems lists top-level items (no child notes or attachments).
func (c *Client) TopItems(ctx context.Context, opts SearchOptions) ([]Item, error) {
	var items []Item
	if err := c.getJSON(ctx, c.libraryPath("/items/top"), opts.values(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CollectionItems lists all items in a collection.
func (c *Client) CollectionItems(ctx context.Context, collectionKey string) ([]Item, error) {
	path := c.libraryPath("/collections/" + url.PathEscape(collectionKey) + "/items")
	var items []Item
	if err := c.getJSON(ctx, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CollectionTopItems lists top-level items in a collection, filtered by opts.
func (c *Client) CollectionTopItems(ctx context.Context, collectionKey string, opts SearchOptions) ([]Item, error) {
	path := c.libraryPath("/collections/" + url.PathEscape(collectionKey) + "/items/top")
	var items []Item
	if err := c.getJSON(ctx, path, opts.values(), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Item fetches a single item by key.
func (c *Client) Item(ctx context.Context, key string) (*Item, error) {
	var item Item
	if err := c.getJSON(ctx, c.libraryPath("/items/"+url.PathEscape(key)), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Citation renders a single item as a citation in the given style and
// returns it as plain text.
func (c *Client) Citation(ctx context.Context, key, style string) (string, error) {
	q := url.Values{}
	q.Set("include", "citation")
	q.Set("style", style)

	var item Item
	if err := c.getJSON(ctx, c.libraryPath("/items/"+url.PathEscape(key)), q, &item); err != nil {
		return "", err
	}
	if item.Citation == "" {
		return "", fmt.Errorf("zotero returned no citation for item %s", key)
	}
	return stripTags(item.Citation), nil
}

// Bibliography renders the given items as a formatted bibliography in the
// given style. The result is the API's markup, returned verbatim.
func (c *Client) Bibliography(ctx context.Context, keys []string, style string) (string, error) {
	q := url.Values{}
	q.Set("itemKey", strings.Join(keys, ","))
	q.Set("format", "bib")
	q.Set("style", style)

	return c.getText(ctx, c.libraryPath("/items"), q)
}

// ItemTemplate fetches the blank field template for an item type. This is a
// global endpoint, not scoped to a library.
func (c *Client) ItemTemplate(ctx context.Context, itemType string) (map[string]any, error) {
	q := url.Values{}
	q.Set("itemType", itemType)

	var template map[string]any
	if err := c.getJSON(ctx, "/items/new", q, &template); err != nil {
		return nil, err
	}
	return template, nil
}

// CreateItems writes new items to the library. A fresh write token makes
// the request idempotent against retries by the transport.
func (c *Client) CreateItems(ctx context.Context, items []map[string]any) (*WriteResponse, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.libraryPath("/items"), nil, bytes.NewReader(body))
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

// UpdateItem patches fields of an existing item. version must be the
// item's current version; the API rejects stale writes with 412.
func (c *Client) UpdateItem(ctx context.Context, key string, fields map[string]any, version int) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode item fields: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, c.libraryPath("/items/"+url.PathEscape(key)), nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("If-Unmodified-Since-Version", strconv.Itoa(version))

	_, err = c.do(req)
	return err
}

// DeleteItem removes an item. version must be the item's current version.
func (c *Client) DeleteItem(ctx context.Context, key string, version int) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.libraryPath("/items/"+url.PathEscape(key)), nil, nil)
	if err != nil {
		return err
	}
	req.Header.Set("If-Unmodified-Since-Version", strconv.Itoa(version))

	_, err = c.do(req)
	return err
}

// AddToCollection files existing items into a collection.
func (c *Client) AddToCollection(ctx context.Context, collectionKey string, itemKeys []string) error {
	path := c.libraryPath("/collections/" + url.PathEscape(collectionKey) + "/items")
	body := strings.NewReader(strings.Join(itemKeys, " "))

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")

	_, err = c.do(req)
	return err
}

// writeToken returns a fresh idempotency token for write requests.
func writeToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// stripTags removes markup tags from a rendered citation, leaving the
// plain text.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
