package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Caller sends a request and decodes the body.
type Caller interface {
	Call(ctx context.Context, req *Request, out any) error
}

// Resource is a CRUD collection of the backend. Single-entity responses are
// wrapped under key, e.g. {"ruolo": {...}}; unwrapped bodies are accepted too.
type Resource[T any] struct {
	caller Caller
	path   string
	key    string
}

// NewResource binds a collection path such as "/ruoli".
func NewResource[T any](caller Caller, path, key string) *Resource[T] {
	return &Resource[T]{caller: caller, path: path, key: key}
}

// List fetches one page.
func (r *Resource[T]) List(ctx context.Context, params shared.ListParams) (shared.Page[T], error) {
	var page shared.Page[T]
	err := r.caller.Call(ctx, &Request{Method: http.MethodGet, Path: r.path, Query: params.Values()}, &page)
	if err != nil {
		return shared.Page[T]{}, err
	}
	if page.Pagination.Data == nil {
		page.Pagination.Data = []T{}
	}
	return page, nil
}

// Get fetches one entity.
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	return r.one(ctx, &Request{Method: http.MethodGet, Path: r.item(id)})
}

// Create posts a new entity.
func (r *Resource[T]) Create(ctx context.Context, body any) (T, error) {
	return r.one(ctx, &Request{Method: http.MethodPost, Path: r.path, Body: body})
}

// Update replaces fields of an entity.
func (r *Resource[T]) Update(ctx context.Context, id int64, body any) (T, error) {
	return r.one(ctx, &Request{Method: http.MethodPut, Path: r.item(id), Body: body})
}

// Delete removes an entity and returns the backend message.
func (r *Resource[T]) Delete(ctx context.Context, id int64) (string, error) {
	var body struct {
		Message string `json:"message"`
	}
	if err := r.caller.Call(ctx, &Request{Method: http.MethodDelete, Path: r.item(id)}, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}

func (r *Resource[T]) item(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}

func (r *Resource[T]) one(ctx context.Context, req *Request) (T, error) {
	var zero T
	var raw json.RawMessage
	if err := r.caller.Call(ctx, req, &raw); err != nil {
		return zero, err
	}
	return unwrap[T](raw, r.key, req.Path)
}

func unwrap[T any](raw json.RawMessage, key, path string) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, fmt.Errorf("api: %s: empty response", path)
	}
	if key != "" {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err == nil {
			if inner, ok := envelope[key]; ok {
				raw = inner
			}
		}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("api: %s: decode: %w", path, err)
	}
	return out, nil
}
