package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"

	"github.com/mesh-intelligence/tally/pkg/store"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Endpoint is the REST collaborator for one resource.
type Endpoint[T store.Record] struct {
	c        *Client
	resource string
	newItem  func() T
}

var _ store.Endpoint[*types.Employee] = (*Endpoint[*types.Employee])(nil)

// Resource returns the Endpoint for the named resource.
func Resource[T store.Record](c *Client, resource string) *Endpoint[T] {
	return &Endpoint[T]{c: c, resource: resource}
}

// Entities returns an Endpoint that decodes into the concrete entity type
// registered for resource. Returns ErrTableNotFound for unknown names.
func Entities(c *Client, resource string) (*Endpoint[types.Entity], error) {
	if !types.IsResource(resource) {
		return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, resource)
	}
	return &Endpoint[types.Entity]{
		c:        c,
		resource: resource,
		newItem: func() types.Entity {
			e, _ := types.NewEntity(resource)
			return e
		},
	}, nil
}

// Name returns the resource name.
func (e *Endpoint[T]) Name() string { return e.resource }

func (e *Endpoint[T]) collection() string {
	return "/api/" + url.PathEscape(e.resource)
}

func (e *Endpoint[T]) member(id string) string {
	return e.collection() + "/" + url.PathEscape(id)
}

// List fetches every item.
func (e *Endpoint[T]) List(ctx context.Context) ([]T, error) {
	return e.ListWhere(ctx, nil)
}

// ListWhere fetches the items whose fields equal the given values. The
// reserved keys "limit" and "offset" page the result.
func (e *Endpoint[T]) ListWhere(ctx context.Context, params map[string]string) ([]T, error) {
	resp, err := e.c.do(ctx, "list", e.resource, http.MethodGet, e.collection(), func(r *resty.Request) {
		if len(params) > 0 {
			r.SetQueryParams(params)
		}
	})
	if err != nil {
		return nil, err
	}
	return decodeList(e.resource, resp.Body(), e.newItem)
}

// Get fetches a single item.
func (e *Endpoint[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, types.Validationf("empty id")
	}
	resp, err := e.c.do(ctx, "get", e.resource, http.MethodGet, e.member(id), nil)
	if err != nil {
		return zero, err
	}
	return decodeItem(e.resource, resp.Body(), e.newItem)
}

// Create posts data and returns the stored item.
func (e *Endpoint[T]) Create(ctx context.Context, data T) (T, error) {
	return e.create(ctx, data)
}

// CreateRaw posts an arbitrary JSON object.
func (e *Endpoint[T]) CreateRaw(ctx context.Context, data map[string]any) (T, error) {
	return e.create(ctx, data)
}

func (e *Endpoint[T]) create(ctx context.Context, body any) (T, error) {
	var zero T
	resp, err := e.c.do(ctx, "create", e.resource, http.MethodPost, e.collection(), func(r *resty.Request) {
		r.SetBody(body)
	})
	if err != nil {
		return zero, err
	}
	return decodeItem(e.resource, resp.Body(), e.newItem)
}

// Update sends a partial patch and returns the updated item.
func (e *Endpoint[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	if id == "" {
		return zero, types.Validationf("empty id")
	}
	resp, err := e.c.do(ctx, "update", e.resource, http.MethodPatch, e.member(id), func(r *resty.Request) {
		r.SetBody(patch)
	})
	if err != nil {
		return zero, err
	}
	return decodeItem(e.resource, resp.Body(), e.newItem)
}

// Delete removes a single item.
func (e *Endpoint[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.Validationf("empty id")
	}
	_, err := e.c.do(ctx, "delete", e.resource, http.MethodDelete, e.member(id), nil)
	return err
}

// BulkDelete removes every listed item in one request.
func (e *Endpoint[T]) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return types.Validationf("no ids to delete")
	}
	_, err := e.c.do(ctx, "bulk-delete", e.resource, http.MethodPost, e.collection()+"/bulk-delete", func(r *resty.Request) {
		r.SetBody(map[string]any{"ids": ids})
	})
	return err
}
