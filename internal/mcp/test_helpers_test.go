// ABOUTME: Shared test helpers for mcp package tests
// ABOUTME: Provides a stateful httptest fake of the Zotero Web API
package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/harper/zotero-mcp/internal/zotero"
)

// fakeZotero is an in-memory stand-in for a user library at api.zotero.org.
type fakeZotero struct {
	srv *httptest.Server

	mu          sync.Mutex
	items       map[string]map[string]any
	versions    map[string]int
	collections map[string]string
	filed       map[string][]string
	lastQuery   url.Values
	nextKey     int
}

func (f *fakeZotero) addItem(key, title, itemType string, extra map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data := map[string]any{"key": key, "itemType": itemType, "title": title}
	for k, v := range extra {
		data[k] = v
	}
	f.items[key] = data
	f.versions[key] = 1
}

func (f *fakeZotero) itemJSON(key string) map[string]any {
	return map[string]any{
		"key":     key,
		"version": f.versions[key],
		"data":    f.items[key],
	}
}

func (f *fakeZotero) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// listItems filters stored items by q and caps the result at limit.
func (f *fakeZotero) listItems(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = r.URL.Query()

	if r.URL.Query().Get("format") == "bib" {
		keys := strings.Split(r.URL.Query().Get("itemKey"), ",")
		fmt.Fprintf(w, `<div class="csl-bib-body">%d entries (%s)</div>`, len(keys), r.URL.Query().Get("style"))
		return
	}

	q := strings.ToLower(r.URL.Query().Get("q"))
	limit := len(f.items)
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	results := []map[string]any{}
	for key, data := range f.items {
		title, _ := data["title"].(string)
		if q != "" && !strings.Contains(strings.ToLower(title), q) {
			continue
		}
		if len(results) >= limit {
			break
		}
		results = append(results, f.itemJSON(key))
	}
	f.writeJSON(w, results)
}

func (f *fakeZotero) getItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.PathValue("key")
	if _, ok := f.items[key]; !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	item := f.itemJSON(key)
	if r.URL.Query().Get("include") == "citation" {
		style := r.URL.Query().Get("style")
		if style == "klingon" {
			http.Error(w, "Invalid style", http.StatusBadRequest)
			return
		}
		title, _ := f.items[key]["title"].(string)
		item["citation"] = fmt.Sprintf("<span>%s (%s)</span>", title, style)
	}
	f.writeJSON(w, item)
}

func (f *fakeZotero) createItems(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	var incoming []map[string]any
	if err := json.Unmarshal(body, &incoming); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	successful := map[string]any{}
	success := map[string]string{}
	for i, data := range incoming {
		f.nextKey++
		key := fmt.Sprintf("NEWKEY%02d", f.nextKey)
		data["key"] = key
		f.items[key] = data
		f.versions[key] = 1
		idx := strconv.Itoa(i)
		successful[idx] = f.itemJSON(key)
		success[idx] = key
	}

	f.writeJSON(w, map[string]any{
		"successful": successful,
		"success":    success,
		"unchanged":  map[string]any{},
		"failed":     map[string]any{},
	})
}

func (f *fakeZotero) updateItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.PathValue("key")
	data, ok := f.items[key]
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Header.Get("If-Unmodified-Since-Version") != strconv.Itoa(f.versions[key]) {
		http.Error(w, "Precondition failed", http.StatusPreconditionFailed)
		return
	}

	body, _ := io.ReadAll(r.Body)
	var patch map[string]any
	if err := json.Unmarshal(body, &patch); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	for k, v := range patch {
		data[k] = v
	}
	f.versions[key]++
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeZotero) deleteItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.PathValue("key")
	if _, ok := f.items[key]; !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Header.Get("If-Unmodified-Since-Version") != strconv.Itoa(f.versions[key]) {
		http.Error(w, "Precondition failed", http.StatusPreconditionFailed)
		return
	}
	delete(f.items, key)
	delete(f.versions, key)
	w.WriteHeader(http.StatusNoContent)
}

// newFakeZotero starts the fake API server for user library 12345.
func newFakeZotero(t *testing.T) *fakeZotero {
	t.Helper()

	f := &fakeZotero{
		items:       make(map[string]map[string]any),
		versions:    make(map[string]int),
		collections: map[string]string{"COLL1111": "Philosophy"},
		filed:       make(map[string][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/12345/items", f.listItems)
	mux.HandleFunc("POST /users/12345/items", f.createItems)
	mux.HandleFunc("GET /users/12345/items/top", f.listItems)
	mux.HandleFunc("GET /users/12345/items/{key}", f.getItem)
	mux.HandleFunc("PATCH /users/12345/items/{key}", f.updateItem)
	mux.HandleFunc("DELETE /users/12345/items/{key}", f.deleteItem)

	mux.HandleFunc("GET /users/12345/collections", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		collections := []map[string]any{}
		for key, name := range f.collections {
			collections = append(collections, map[string]any{
				"key":     key,
				"version": 1,
				"data":    map[string]any{"key": key, "name": name, "parentCollection": false},
			})
		}
		f.writeJSON(w, collections)
	})
	mux.HandleFunc("POST /users/12345/collections", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		var incoming []map[string]any
		if err := json.Unmarshal(body, &incoming); err != nil || len(incoming) == 0 {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		f.nextKey++
		key := fmt.Sprintf("NEWCOLL%01d", f.nextKey)
		name, _ := incoming[0]["name"].(string)
		f.collections[key] = name
		f.writeJSON(w, map[string]any{
			"successful": map[string]any{"0": map[string]any{"key": key}},
			"success":    map[string]string{"0": key},
			"unchanged":  map[string]any{},
			"failed":     map[string]any{},
		})
	})
	mux.HandleFunc("GET /users/12345/collections/{key}/items", f.listItems)
	mux.HandleFunc("GET /users/12345/collections/{key}/items/top", f.listItems)
	mux.HandleFunc("POST /users/12345/collections/{key}/items", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		key := r.PathValue("key")
		f.filed[key] = append(f.filed[key], strings.Fields(string(body))...)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /items/new", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, map[string]any{
			"itemType":     r.URL.Query().Get("itemType"),
			"title":        "",
			"creators":     []any{},
			"abstractNote": "",
			"date":         "",
		})
	})
	mux.HandleFunc("GET /itemTypes", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, []map[string]string{
			{"itemType": "book", "localized": "Book"},
			{"itemType": "journalArticle", "localized": "Journal Article"},
		})
	})
	mux.HandleFunc("GET /itemTypeFields", func(w http.ResponseWriter, r *http.Request) {
		f.writeJSON(w, []map[string]string{
			{"field": "title", "localized": "Title"},
			{"field": "date", "localized": "Date"},
		})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

// newTestServer wires a Server to a fresh fake library.
func newTestServer(t *testing.T) (*Server, *fakeZotero) {
	t.Helper()
	fake := newFakeZotero(t)
	client := zotero.NewClient("test-key", "users", "12345", &zotero.Options{BaseURL: fake.srv.URL})
	return NewServer(client, nil), fake
}
