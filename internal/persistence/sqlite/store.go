// Package sqlite implements persistence.Store on top of modernc.org/sqlite.
//
// Every collection shares a single records table; documents are stored as JSON
// objects and filtered with json_extract.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/example/orientation-hub/internal/persistence"
)

// Store is a persistence.Store backed by SQLite.
type Store struct {
	db    *sql.DB
	retry *RetryHelper
	newID func() string
}

// Option customises a Store.
type Option func(*Store)

// WithIDGenerator overrides the random UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithRetryConfig overrides the lock contention retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(s *Store) {
		s.retry = NewRetryHelper(cfg)
	}
}

// Open connects to the configured database. Call Migrate before use.
func Open(cfg Config, opts ...Option) (*Store, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return New(db, opts...), nil
}

// New wraps an existing database handle.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		retry: NewRetryHelper(DefaultRetryConfig()),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find returns matching records ordered by insertion.
func (s *Store) Find(ctx context.Context, collection persistence.Collection, filter persistence.Fields) ([]persistence.Record, error) {
	if err := persistence.ValidateCollection(collection); err != nil {
		return nil, err
	}

	conditions, args := filterConditions(filter)
	query := "SELECT id, fields FROM records WHERE collection = ?" + conditions + " ORDER BY seq"
	args = append([]any{collection.String()}, args...)

	var records []persistence.Record
	err := s.retry.WithRetry(ctx, func() error {
		records = nil
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id  string
				raw string
			)
			if err := rows.Scan(&id, &raw); err != nil {
				return err
			}
			fields, err := decodeFields(raw)
			if err != nil {
				return fmt.Errorf("sqlite: decode record %s: %w", id, err)
			}
			records = append(records, persistence.Record{ID: id, Fields: fields})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: find in %s: %w", collection, err)
	}
	return records, nil
}

// Insert appends a new document to the collection.
func (s *Store) Insert(ctx context.Context, collection persistence.Collection, fields persistence.Fields) (persistence.Record, error) {
	if err := persistence.ValidateCollection(collection); err != nil {
		return persistence.Record{}, err
	}

	record := persistence.Record{ID: s.newID(), Fields: fields.Clone()}
	if record.Fields == nil {
		record.Fields = persistence.Fields{}
	}
	raw, err := json.Marshal(record.Fields)
	if err != nil {
		return persistence.Record{}, fmt.Errorf("sqlite: encode record: %w", err)
	}

	err = s.retry.WithRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO records (id, collection, fields) VALUES (?, ?, ?)",
			record.ID, collection.String(), string(raw))
		return err
	})
	if err != nil {
		return persistence.Record{}, fmt.Errorf("sqlite: insert into %s: %w", collection, err)
	}
	return persistence.Record{ID: record.ID, Fields: record.Fields.Clone()}, nil
}

// Update merges set into the record in a single statement guarded by expected.
func (s *Store) Update(ctx context.Context, collection persistence.Collection, id string, expected, set persistence.Fields) (bool, error) {
	if err := persistence.ValidateCollection(collection); err != nil {
		return false, err
	}
	if set == nil {
		set = persistence.Fields{}
	}
	patch, err := json.Marshal(set)
	if err != nil {
		return false, fmt.Errorf("sqlite: encode update: %w", err)
	}

	conditions, guardArgs := filterConditions(expected)
	query := "UPDATE records SET fields = json_patch(fields, ?) WHERE collection = ? AND id = ?" + conditions
	args := append([]any{string(patch), collection.String(), id}, guardArgs...)

	var affected int64
	err = s.retry.WithRetry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("sqlite: update %s in %s: %w", id, collection, err)
	}
	if affected > 0 {
		return true, nil
	}

	var exists int
	err = s.retry.WithRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT 1 FROM records WHERE collection = ? AND id = ?",
			collection.String(), id).Scan(&exists)
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, fmt.Errorf("sqlite: update %s in %s: %w", id, collection, persistence.ErrNotFound)
		}
		return false, fmt.Errorf("sqlite: update %s in %s: %w", id, collection, err)
	}
	return false, nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var plainFieldName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// filterConditions renders equality predicates in deterministic key order.
// Plain field names are inlined as literal JSON paths so that expression
// indexes such as idx_records_username apply.
func filterConditions(filter persistence.Fields) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		if plainFieldName.MatchString(key) {
			fmt.Fprintf(&b, " AND json_extract(fields, '$.%s') = ?", key)
		} else {
			b.WriteString(" AND json_extract(fields, ?) = ?")
			args = append(args, jsonPath(key))
		}
		args = append(args, filter[key])
	}
	return b.String(), args
}

func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}

func decodeFields(raw string) (persistence.Fields, error) {
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	fields := make(persistence.Fields, len(values))
	for k, v := range values {
		switch typed := v.(type) {
		case string:
			fields[k] = typed
		case nil:
			fields[k] = ""
		default:
			fields[k] = fmt.Sprint(typed)
		}
	}
	return fields, nil
}
