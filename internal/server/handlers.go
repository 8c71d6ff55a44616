package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/mesh-intelligence/tally/pkg/logger"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// immutableFields are ignored in a PATCH body.
var immutableFields = []string{"id", "created_at", "updated_at"}

// table resolves the {resource} route variable. It writes a 404 and
// returns false for unknown resources.
func (s *Server) table(w http.ResponseWriter, r *http.Request) (string, types.Table, bool) {
	resource := mux.Vars(r)["resource"]
	if !types.IsResource(resource) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown resource %q", resource))
		return "", nil, false
	}
	t, err := s.cabinet.GetTable(resource)
	if err != nil {
		s.fail(w, r, err)
		return "", nil, false
	}
	return resource, t, true
}

// fail writes the error response matching err and logs server faults.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	resource, t, ok := s.table(w, r)
	if !ok {
		return
	}

	filter := make(map[string]any)
	for key, values := range r.URL.Query() {
		if len(values) == 1 {
			filter[key] = values[0]
		} else {
			filter[key] = values
		}
	}

	entities, err := t.Fetch(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{resource: entities})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	_, t, ok := s.table(w, r)
	if !ok {
		return
	}
	entity, err := t.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	resource, t, ok := s.table(w, r)
	if !ok {
		return
	}
	entity, err := types.NewEntity(resource)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := readJSON(w, r, entity); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	if id := entity.RecordID(); id != "" {
		_, err := t.Get(r.Context(), id)
		switch {
		case err == nil:
			writeError(w, http.StatusConflict, fmt.Sprintf("%s %s already exists", resource, id))
			return
		case !errors.Is(err, types.ErrNotFound):
			s.fail(w, r, err)
			return
		}
	}

	id, err := t.Set(r.Context(), "", entity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	created, err := t.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdate merges the JSON object in the body into the stored record.
// An id in the body must match the path.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	resource, t, ok := s.table(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var patch map[string]json.RawMessage
	if err := readJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if raw, ok := patch["id"]; ok {
		var patched string
		if err := json.Unmarshal(raw, &patched); err != nil || patched != id {
			writeError(w, http.StatusBadRequest, "field \"id\" is read-only")
			return
		}
	}

	existing, err := t.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	merged, err := merge(resource, existing, patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := t.Set(r.Context(), id, merged); err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := t.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// merge overlays patch onto the JSON form of existing and decodes the
// result as a fresh entity.
func merge(resource string, existing types.Entity, patch map[string]json.RawMessage) (types.Entity, error) {
	base, err := json.Marshal(existing)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &doc); err != nil {
		return nil, err
	}
	for k, v := range patch {
		if slices.Contains(immutableFields, k) {
			continue
		}
		doc[k] = v
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	merged, err := types.NewEntity(resource)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, merged); err != nil {
		return nil, fmt.Errorf("invalid field value: %v", err)
	}
	return merged, nil
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	resource, t, ok := s.table(w, r)
	if !ok {
		return
	}
	if err := t.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.recordDeleted(resource, 1)
	w.WriteHeader(http.StatusNoContent)
}

// handleBulkDelete checks, in order: the method (405), the body (400),
// then the data layer (404 for unknown ids, 500 otherwise).
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resource, t, ok := s.table(w, r)
	if !ok {
		return
	}

	ids, err := readIDs(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ids = uniqueIDs(ids)

	if err := t.BulkDelete(r.Context(), ids); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.FromContext(r.Context()).Error("bulk delete failed", "resource", resource, "count", len(ids), "err", err)
		writeError(w, http.StatusInternalServerError, "bulk delete failed")
		return
	}
	s.metrics.recordDeleted(resource, len(ids))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": ids})
}

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// readIDs decodes {"ids": [...]} and requires a non-empty array of
// non-empty strings.
func readIDs(w http.ResponseWriter, r *http.Request) ([]string, error) {
	var body map[string]json.RawMessage
	if err := readJSON(w, r, &body); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}
	raw, ok := body["ids"]
	if !ok {
		return nil, errors.New("ids is required")
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil || ids == nil {
		return nil, errors.New("ids must be an array of strings")
	}
	if len(ids) == 0 {
		return nil, errors.New("ids must not be empty")
	}
	if slices.Contains(ids, "") {
		return nil, errors.New("ids must not contain empty values")
	}
	return ids, nil
}
