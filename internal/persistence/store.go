package persistence

import "context"

// Store is a collection-oriented document store.
//
// Find returns records in store-native insertion order. Update is a
// compare-and-set: set is applied only when every field in expected still
// holds, and a failed guard is reported as (false, nil). Update returns
// ErrNotFound when no record carries the id.
type Store interface {
	Find(ctx context.Context, collection Collection, filter Fields) ([]Record, error)
	Insert(ctx context.Context, collection Collection, fields Fields) (Record, error)
	Update(ctx context.Context, collection Collection, id string, expected, set Fields) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// FindFirst returns the first record matching filter.
func FindFirst(ctx context.Context, store Store, collection Collection, filter Fields) (Record, bool, error) {
	records, err := store.Find(ctx, collection, filter)
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[0], true, nil
}
