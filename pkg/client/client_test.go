package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/pkg/store"
	"github.com/mesh-intelligence/tally/pkg/types"
)

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr bool
	}{
		{"envelope", `{"employees":[{"id":"a"},{"id":"b"}]}`, []string{"a", "b"}, false},
		{"bare array", `[{"id":"c"}]`, []string{"c"}, false},
		{"empty envelope", `{"employees":[]}`, []string{}, false},
		{"wrong key", `{"vendors":[{"id":"a"}]}`, nil, true},
		{"key not an array", `{"employees":{"id":"a"}}`, nil, true},
		{"scalar", `"nope"`, nil, true},
		{"invalid json", `{"employees":[`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList[*types.Employee]("employees", []byte(tt.body), nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrTransport)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, types.ErrValidation},
		{http.StatusUnprocessableEntity, types.ErrValidation},
		{http.StatusNotFound, types.ErrNotFound},
		{http.StatusConflict, types.ErrConflict},
		{http.StatusMethodNotAllowed, types.ErrTransport},
		{http.StatusInternalServerError, types.ErrTransport},
		{http.StatusServiceUnavailable, types.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":"boom"}`)
			}))
			defer srv.Close()

			ep := Resource[*types.Employee](New(srv.URL), types.ResourceEmployees)
			err := ep.Delete(context.Background(), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var reqErr *types.RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.status, reqErr.Status)
			assert.Equal(t, "boom", reqErr.Message)
			assert.Equal(t, "delete", reqErr.Op)
		})
	}
}

func TestNoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ep := Resource[*types.Employee](New(srv.URL), types.ResourceEmployees)
	_, err := ep.List(context.Background())
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ep := Resource[*types.Employee](New(url), types.ResourceEmployees)
	_, err := ep.List(context.Background())
	assert.ErrorIs(t, err, types.ErrTransport)

	var reqErr *types.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Zero(t, reqErr.Status)
}

func TestEndpointRequests(t *testing.T) {
	type request struct {
		method string
		path   string
		query  string
		body   map[string]any
	}
	var (
		mu   sync.Mutex
		seen request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := request{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		mu.Lock()
		seen = got
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/employees":
			_, _ = io.WriteString(w, `{"employees":[{"id":"e1","first_name":"Ada"}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/employees":
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":"e2","first_name":"Grace","last_name":"Hopper"}`)
		case r.Method == http.MethodPatch:
			_, _ = io.WriteString(w, `{"id":"e1","first_name":"Ada","title":"Countess"}`)
		case r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"id":"e1","first_name":"Ada"}`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			_, _ = io.WriteString(w, `{"deleted":["e1","e2"]}`)
		}
	}))
	defer srv.Close()

	last := func() request {
		mu.Lock()
		defer mu.Unlock()
		return seen
	}

	ctx := context.Background()
	ep := Resource[*types.Employee](New(srv.URL+"/"), types.ResourceEmployees)

	items, err := ep.ListWhere(ctx, map[string]string{"status": "active"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ada", items[0].FirstName)
	assert.Equal(t, "status=active", last().query)

	got, err := ep.Get(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "/api/employees/e1", last().path)

	created, err := ep.Create(ctx, &types.Employee{FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)
	assert.Equal(t, "e2", created.ID)
	assert.Equal(t, "Grace", last().body["first_name"])

	updated, err := ep.Update(ctx, "e1", map[string]any{"title": "Countess"})
	require.NoError(t, err)
	assert.Equal(t, "Countess", updated.Title)
	assert.Equal(t, http.MethodPatch, last().method)
	assert.Equal(t, map[string]any{"title": "Countess"}, last().body)

	require.NoError(t, ep.Delete(ctx, "e1"))
	assert.Equal(t, http.MethodDelete, last().method)

	require.NoError(t, ep.BulkDelete(ctx, []string{"e1", "e2"}))
	assert.Equal(t, "/api/employees/bulk-delete", last().path)
	assert.Equal(t, http.MethodPost, last().method)
	assert.Equal(t, []any{"e1", "e2"}, last().body["ids"])
}

func TestEmptyIDsRejectedLocally(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ctx := context.Background()
	ep := Resource[*types.Employee](New(srv.URL), types.ResourceEmployees)

	assert.ErrorIs(t, ep.BulkDelete(ctx, nil), types.ErrValidation)
	assert.ErrorIs(t, ep.Delete(ctx, ""), types.ErrValidation)
	_, err := ep.Update(ctx, "", map[string]any{"a": 1})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Zero(t, calls.Load())
}

func TestStoreOverEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"vendors":[{"id":"v1","name":"Acme"},{"id":"v2","name":"Globex"}]}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":"database unavailable"}`)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := store.New[*types.Vendor](types.ResourceVendors,
		Resource[*types.Vendor](New(srv.URL), types.ResourceVendors))
	require.NoError(t, s.Load(ctx))
	assert.Len(t, s.Items(), 2)

	s.SelectAll()
	err := s.DeleteSelected(ctx)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.Len(t, s.Items(), 2)
	assert.Equal(t, []string{"v1", "v2"}, s.Selection())
}

func TestEntitiesEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"salaries":[{"id":"s1","employee_id":"e1","amount":"4200.50","currency":"EUR"}]}`)
	}))
	defer srv.Close()

	_, err := Entities(New(srv.URL), "planets")
	assert.ErrorIs(t, err, types.ErrTableNotFound)

	ep, err := Entities(New(srv.URL), types.ResourceSalaries)
	require.NoError(t, err)
	items, err := ep.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	s, ok := items[0].(*types.Salary)
	require.True(t, ok, "got %T", items[0])
	assert.Equal(t, "4200.5", s.Amount.String())

	v, ok := s.Field("currency")
	assert.True(t, ok)
	assert.Equal(t, "EUR", v)
}
