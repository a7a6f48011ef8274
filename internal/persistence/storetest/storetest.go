// Package storetest holds the behavioural contract every persistence.Store
// driver must satisfy.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/orientation-hub/internal/persistence"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) persistence.Store

// Run exercises the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	users := persistence.UsersCollection
	board := persistence.LeaderboardCollection

	t.Run("insert then find preserves insertion order", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for i := 0; i < 5; i++ {
			_, err := store.Insert(ctx, users, persistence.Fields{
				persistence.FieldUsername: fmt.Sprintf("user-%d", i),
			})
			require.NoError(t, err)
		}

		records, err := store.Find(ctx, users, nil)
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i, record := range records {
			require.NotEmpty(t, record.ID)
			require.Equal(t, fmt.Sprintf("user-%d", i), record.Get(persistence.FieldUsername))
		}
	})

	t.Run("filters by exact field values", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, users, persistence.Fields{"Username": "alice", "Password": "pw1"})
		require.NoError(t, err)
		_, err = store.Insert(ctx, users, persistence.Fields{"Username": "bob", "Password": "pw1"})
		require.NoError(t, err)

		records, err := store.Find(ctx, users, persistence.Fields{"Username": "alice", "Password": "pw1"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "alice", records[0].Get("Username"))

		records, err = store.Find(ctx, users, persistence.Fields{"Username": "alice", "Password": "PW1"})
		require.NoError(t, err)
		require.Empty(t, records)

		records, err = store.Find(ctx, users, persistence.Fields{"Missing": "x"})
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, persistence.TaskCollection("Dorm"), persistence.Fields{"Username": "alice"})
		require.NoError(t, err)

		records, err := store.Find(ctx, persistence.TaskCollection("Food"), nil)
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("update applies set when the guard holds", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		record, err := store.Insert(ctx, board, persistence.Fields{"Username": "alice", "Points": "0", "Dorm": "False"})
		require.NoError(t, err)

		applied, err := store.Update(ctx, board, record.ID,
			persistence.Fields{"Dorm": "False", "Points": "0"},
			persistence.Fields{"Dorm": "True", "Points": "100"})
		require.NoError(t, err)
		require.True(t, applied)

		applied, err = store.Update(ctx, board, record.ID,
			persistence.Fields{"Dorm": "False", "Points": "0"},
			persistence.Fields{"Dorm": "True", "Points": "200"})
		require.NoError(t, err)
		require.False(t, applied)

		stored, found, err := persistence.FindFirst(ctx, store, board, persistence.Fields{"Username": "alice"})
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "True", stored.Get("Dorm"))
		require.Equal(t, "100", stored.Get("Points"))
	})

	t.Run("update without a guard adds new fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		record, err := store.Insert(ctx, users, persistence.Fields{"Username": "alice"})
		require.NoError(t, err)

		applied, err := store.Update(ctx, users, record.ID, nil, persistence.Fields{"AboutMe": "hi"})
		require.NoError(t, err)
		require.True(t, applied)

		records, err := store.Find(ctx, users, persistence.Fields{"AboutMe": "hi"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "alice", records[0].Get("Username"))
	})

	t.Run("update reports unknown ids", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Update(context.Background(), users, "does-not-exist", nil, persistence.Fields{"a": "b"})
		require.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("returned records are detached from the store", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		fields := persistence.Fields{"Username": "alice"}
		record, err := store.Insert(ctx, users, fields)
		require.NoError(t, err)
		fields["Username"] = "mallory"
		record.Fields["Username"] = "mallory"

		records, err := store.Find(ctx, users, nil)
		require.NoError(t, err)
		require.Equal(t, "alice", records[0].Get("Username"))
	})

	t.Run("concurrent guarded updates apply exactly once", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		record, err := store.Insert(ctx, board, persistence.Fields{"Username": "alice", "Points": "0", "Food": "False"})
		require.NoError(t, err)

		const workers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			applied int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.Update(ctx, board, record.ID,
					persistence.Fields{"Food": "False", "Points": "0"},
					persistence.Fields{"Food": "True", "Points": "100"})
				if err != nil {
					t.Errorf("update failed: %v", err)
					return
				}
				if ok {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, applied)
	})

	t.Run("rejects invalid collections", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Find(context.Background(), persistence.Collection{Name: "Users"}, nil)
		require.ErrorIs(t, err, persistence.ErrInvalidCollection)
	})

	t.Run("ping succeeds on a live store", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Ping(context.Background()))
	})
}
