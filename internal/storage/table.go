package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// Reserved Fetch filter keys.
const (
	FilterLimit  = "limit"
	FilterOffset = "offset"
)

var columns = []string{"id", "created_at", "updated_at", "body"}

// columnFields are filterable directly on their column.
var columnFields = map[string]bool{"id": true, "created_at": true, "updated_at": true}

var fieldName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Table implements types.Table for one resource.
type Table struct {
	backend *Backend
	name    string
	kind    reflect.Type
}

var _ types.Table = (*Table)(nil)

func newTable(b *Backend, name string) *Table {
	proto, _ := types.NewEntity(name)
	return &Table{backend: b, name: name, kind: reflect.TypeOf(proto)}
}

// Name returns the resource name.
func (t *Table) Name() string { return t.name }

// Get retrieves an entity by ID.
func (t *Table) Get(ctx context.Context, id string) (types.Entity, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, d, err := t.backend.handle()
	if err != nil {
		return nil, err
	}
	q, args, err := d.builder().
		Select(columns...).
		From(t.name).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get: %w", err)
	}
	entity, err := t.scan(db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", t.name, id, types.ErrNotFound)
	}
	return entity, err
}

// Set creates or updates an entity. A new entity gets a UUID v7 unless one
// is given, default values, and created_at from the payload when present.
// Updating keeps the stored created_at. Returns the ID used.
func (t *Table) Set(ctx context.Context, id string, data types.Entity) (string, error) {
	if data == nil || reflect.TypeOf(data) != t.kind {
		return "", fmt.Errorf("%w: expected %s", types.ErrInvalidData, t.kind)
	}
	if id == "" {
		id = data.RecordID()
	}
	db, d, err := t.backend.handle()
	if err != nil {
		return "", err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning set: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	created, exists, err := t.createdAt(ctx, tx, d, id)
	if err != nil {
		return "", err
	}
	if !exists {
		if id == "" {
			id = generateUUID()
		}
		created = now
		if v, ok := data.Field("created_at"); ok {
			if ts, ok := v.(time.Time); ok && !ts.IsZero() {
				created = ts.UTC()
			}
		}
		if def, ok := data.(types.Defaulter); ok {
			def.ApplyDefaults()
		}
	}
	data.Stamp(id, created, now)
	if err := data.Validate(); err != nil {
		return "", err
	}

	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}
	q, args, err := d.builder().
		Insert(t.name).
		Columns(columns...).
		Values(id, formatTime(created), formatTime(now), d.bodyValue(string(body))).
		Suffix("ON CONFLICT (id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("building upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return "", t.writeError(d, err)
	}
	if err := tx.Commit(); err != nil {
		return "", t.writeError(d, err)
	}
	return id, nil
}

// createdAt looks up the stored creation time of id.
func (t *Table) createdAt(ctx context.Context, tx *sql.Tx, d dialect, id string) (time.Time, bool, error) {
	if id == "" {
		return time.Time{}, false, nil
	}
	q, args, err := d.builder().
		Select("created_at").
		From(t.name).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("building lookup: %w", err)
	}
	var raw string
	err = tx.QueryRowContext(ctx, q, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("looking up %s %s: %w", t.name, id, err)
	}
	created, err := parseTime(raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing created_at of %s: %w", id, err)
	}
	return created, true, nil
}

// Delete removes an entity by ID.
func (t *Table) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, d, err := t.backend.handle()
	if err != nil {
		return err
	}
	q, args, err := d.builder().
		Delete(t.name).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", t.name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", t.name, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", t.name, id, types.ErrNotFound)
	}
	return nil
}

// BulkDelete removes every listed entity in one transaction. If any id is
// unknown nothing is deleted and ErrNotFound is returned.
func (t *Table) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return types.ErrInvalidID
	}
	if slices.Contains(ids, "") {
		return types.ErrInvalidID
	}
	unique := slices.Compact(slices.Sorted(slices.Values(ids)))

	db, d, err := t.backend.handle()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning bulk delete: %w", err)
	}
	defer tx.Rollback()

	q, args, err := d.builder().
		Select("COUNT(*)").
		From(t.name).
		Where(sq.Eq{"id": unique}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building bulk delete count: %w", err)
	}
	var found int
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&found); err != nil {
		return fmt.Errorf("counting %s: %w", t.name, err)
	}
	if found != len(unique) {
		return fmt.Errorf("%s: %d of %d ids: %w", t.name, len(unique)-found, len(unique), types.ErrNotFound)
	}

	q, args, err = d.builder().
		Delete(t.name).
		Where(sq.Eq{"id": unique}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building bulk delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("bulk deleting %s: %w", t.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bulk delete: %w", err)
	}
	return nil
}

// Fetch returns entities whose fields equal the filter values, newest
// first. A slice value matches any of its elements.
func (t *Table) Fetch(ctx context.Context, filter map[string]any) ([]types.Entity, error) {
	db, d, err := t.backend.handle()
	if err != nil {
		return nil, err
	}
	query, err := t.fetchQuery(d, filter)
	if err != nil {
		return nil, err
	}
	q, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building fetch: %w", err)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []types.Entity{}
	for rows.Next() {
		e, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", t.name, err)
	}
	return out, nil
}

func (t *Table) fetchQuery(d dialect, filter map[string]any) (sq.SelectBuilder, error) {
	query := d.builder().
		Select(columns...).
		From(t.name).
		OrderBy("created_at DESC", "id ASC")

	proto, err := types.NewEntity(t.name)
	if err != nil {
		return query, err
	}

	var limit, offset uint64
	for _, key := range slices.Sorted(maps.Keys(filter)) {
		value := filter[key]
		switch key {
		case FilterLimit:
			if limit, err = count(value); err != nil {
				return query, fmt.Errorf("%w: limit: %w", types.ErrInvalidFilter, err)
			}
			continue
		case FilterOffset:
			if offset, err = count(value); err != nil {
				return query, fmt.Errorf("%w: offset: %w", types.ErrInvalidFilter, err)
			}
			continue
		}
		if !fieldName.MatchString(key) {
			return query, fmt.Errorf("%w: bad field name %q", types.ErrInvalidFilter, key)
		}
		if _, ok := proto.Field(key); !ok {
			return query, fmt.Errorf("%w: %s has no field %q", types.ErrInvalidFilter, t.name, key)
		}
		if columnFields[key] {
			if ts, ok := value.(time.Time); ok {
				value = formatTime(ts)
			}
			query = query.Where(sq.Eq{key: filterValue(value)})
			continue
		}
		query = query.Where(sq.Eq{d.jsonField(key): filterValue(value)})
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		if limit == 0 {
			query = query.Limit(math.MaxInt64)
		}
		query = query.Offset(offset)
	}
	return query, nil
}

// filterValue renders a filter value in the text form stored in the JSON
// body; slices become IN lists.
func filterValue(v any) any {
	switch v := v.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = fmt.Sprint(e)
		}
		return out
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func count(v any) (uint64, error) {
	switch v := v.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case string:
		return strconv.ParseUint(v, 10, 64)
	}
	return 0, fmt.Errorf("unsupported type %T", v)
}

type scanner interface {
	Scan(dest ...any) error
}

// scan decodes one row. The id and timestamp columns are authoritative over
// the copies in the body.
func (t *Table) scan(row scanner) (types.Entity, error) {
	var id, created, updated, body string
	if err := row.Scan(&id, &created, &updated, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning %s: %w", t.name, err)
	}
	entity, err := types.NewEntity(t.name)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(body), entity); err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", t.name, id, err)
	}
	createdAt, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at of %s: %w", id, err)
	}
	updatedAt, err := parseTime(updated)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at of %s: %w", id, err)
	}
	entity.Stamp(id, createdAt, updatedAt)
	return entity, nil
}

func (t *Table) writeError(d dialect, err error) error {
	if d.unique(err) {
		return fmt.Errorf("%s: %w: %w", t.name, types.ErrConflict, err)
	}
	return fmt.Errorf("writing %s: %w", t.name, err)
}
