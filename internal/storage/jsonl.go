package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// ImportResult counts the outcome of Import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Export writes every entity of resource to path as JSON lines, newest
// first. The file is replaced atomically.
func Export(ctx context.Context, c types.Cabinet, resource, path string) (int, error) {
	table, err := c.GetTable(resource)
	if err != nil {
		return 0, err
	}
	entities, err := table.Fetch(ctx, nil)
	if err != nil {
		return 0, err
	}
	records := make([]json.RawMessage, 0, len(entities))
	for _, e := range entities {
		b, err := json.Marshal(e)
		if err != nil {
			return 0, fmt.Errorf("encoding %s %s: %w", resource, e.RecordID(), err)
		}
		records = append(records, b)
	}
	if err := writeJSONL(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Import upserts every record of a JSON lines file into resource. Malformed
// lines and records that fail validation are skipped; storage failures
// abort the import.
func Import(ctx context.Context, c types.Cabinet, resource, path string) (ImportResult, error) {
	var res ImportResult
	table, err := c.GetTable(resource)
	if err != nil {
		return res, err
	}
	records, skipped, err := readJSONL(path)
	if err != nil {
		return res, err
	}
	res.Skipped = skipped

	for _, rec := range records {
		entity, err := types.NewEntity(resource)
		if err != nil {
			return res, err
		}
		if err := json.Unmarshal(rec, entity); err != nil {
			res.Skipped++
			continue
		}
		if _, err := table.Set(ctx, entity.RecordID(), entity); err != nil {
			if errors.Is(err, types.ErrValidation) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("importing %s: %w", resource, err)
		}
		res.Imported++
	}
	return res, nil
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage along with the number of malformed lines skipped.
func readJSONL(path string) ([]json.RawMessage, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		records []json.RawMessage
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			skipped++
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
