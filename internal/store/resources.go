package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
)

// Resource is a stored JSON payload addressed by path.
type Resource struct {
	Path        string
	Payload     any
	ContentHash string
	Seq         int64
}

var _ engine.Fetcher = (*Store)(nil)

// PutResource stores payload under path, replacing any previous payload.
// Each write takes a fresh seq, so the most recently written resource sorts last.
// Writing an identical payload leaves the row untouched.
func (s *Store) PutResource(ctx context.Context, path string, payload any) (Resource, error) {
	if path == "" {
		return Resource{}, fmt.Errorf("put resource: path is required")
	}

	payloadJSON, err := marshalColumn("payload", payload)
	if err != nil {
		return Resource{}, fmt.Errorf("put resource %q: %w", path, err)
	}
	hash, err := ir.ResourceHash(payload)
	if err != nil {
		return Resource{}, fmt.Errorf("put resource %q: %w", path, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Resource{}, fmt.Errorf("put resource %q: %w", path, err)
	}
	defer tx.Rollback()

	existing, err := readResource(ctx, tx, path)
	switch {
	case err == nil && existing.ContentHash == hash:
		return existing, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return Resource{}, fmt.Errorf("put resource %q: %w", path, err)
	}

	seq, err := nextSeq(ctx, tx, "resources")
	if err != nil {
		return Resource{}, fmt.Errorf("put resource %q: %w", path, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO resources (path, payload, content_hash, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			payload = excluded.payload,
			content_hash = excluded.content_hash,
			seq = excluded.seq
	`, path, payloadJSON, hash, seq)
	if err != nil {
		return Resource{}, fmt.Errorf("put resource %q: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return Resource{}, fmt.Errorf("put resource %q: %w", path, err)
	}

	stored, err := unmarshalValue("payload", payloadJSON)
	if err != nil {
		return Resource{}, err
	}
	return Resource{Path: path, Payload: stored, ContentHash: hash, Seq: seq}, nil
}

// GetResource retrieves a resource by path.
// Returns ErrNotFound if no resource is stored under path.
func (s *Store) GetResource(ctx context.Context, path string) (Resource, error) {
	return readResource(ctx, s.db, path)
}

// Fetch implements engine.Fetcher so a Store can back LoadConstantsCommand steps.
func (s *Store) Fetch(ctx context.Context, path string) (any, error) {
	res, err := s.GetResource(ctx, path)
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}

// ListResources returns all stored resources ordered by path.
// Returns an empty slice (not nil) when the store holds no resources.
func (s *Store) ListResources(ctx context.Context) ([]Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, payload, content_hash, seq
		FROM resources
		ORDER BY path COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	resources := []Resource{}
	for rows.Next() {
		var res Resource
		var payloadJSON string
		if err := rows.Scan(&res.Path, &payloadJSON, &res.ContentHash, &res.Seq); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		if res.Payload, err = unmarshalValue("payload", payloadJSON); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}

	return resources, nil
}

type rowQuerier interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func readResource(ctx context.Context, q rowQuerier, path string) (Resource, error) {
	res := Resource{Path: path}
	var payloadJSON string
	err := q.QueryRowContext(ctx, `
		SELECT payload, content_hash, seq
		FROM resources
		WHERE path = ?
	`, path).Scan(&payloadJSON, &res.ContentHash, &res.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Resource{}, fmt.Errorf("resource %q: %w", path, ErrNotFound)
	}
	if err != nil {
		return Resource{}, fmt.Errorf("read resource %q: %w", path, err)
	}

	if res.Payload, err = unmarshalValue("payload", payloadJSON); err != nil {
		return Resource{}, err
	}
	return res, nil
}
