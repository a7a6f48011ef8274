package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/orientation-hub/internal/persistence"
	"github.com/example/orientation-hub/internal/persistence/memory"
)

// updateFailingStore fails every Update with err and delegates the rest.
type updateFailingStore struct {
	persistence.Store
	err error
}

func (s updateFailingStore) Update(context.Context, persistence.Collection, string, persistence.Fields, persistence.Fields) (bool, error) {
	return false, s.err
}

func newModifyDirectory(t *testing.T, store persistence.Store) *UserDirectory {
	t.Helper()
	ctx := context.Background()
	if _, err := store.Insert(ctx, persistence.UsersCollection, persistence.Fields{
		persistence.FieldUsername:    "alice",
		persistence.FieldPassword:    "pw1",
		persistence.FieldDisplayName: "Alice",
		fieldPhotoGallery:            `["img-1"]`,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	directory, err := NewUserDirectory(ctx, store, nil)
	if err != nil {
		t.Fatalf("NewUserDirectory: %v", err)
	}
	return directory
}

func TestUserDirectory_ModifyPropagatesErrors(t *testing.T) {
	t.Parallel()

	t.Run("callback error leaves store and cache untouched", func(t *testing.T) {
		t.Parallel()
		store := memory.New()
		directory := newModifyDirectory(t, store)
		encodeErr := errors.New("encode failed")

		_, err := directory.modify(context.Background(), "alice", func(u *User) (persistence.Fields, error) {
			u.PhotoGallery = append(u.PhotoGallery, "img-2")
			return nil, encodeErr
		})
		if !errors.Is(err, encodeErr) {
			t.Fatalf("expected callback error, got %v", err)
		}

		user, err := directory.Profile("alice")
		if err != nil {
			t.Fatalf("Profile: %v", err)
		}
		if len(user.PhotoGallery) != 1 {
			t.Fatalf("cache changed after failed modify: %v", user.PhotoGallery)
		}
		records, err := store.Find(context.Background(), persistence.UsersCollection, nil)
		if err != nil || len(records) != 1 {
			t.Fatalf("Find: %v %v", records, err)
		}
		if got := records[0].Get(fieldPhotoGallery); got != `["img-1"]` {
			t.Fatalf("store changed after failed modify: %q", got)
		}
	})

	t.Run("store failure leaves cache untouched", func(t *testing.T) {
		t.Parallel()
		storeErr := errors.New("disk full")
		directory := newModifyDirectory(t, updateFailingStore{Store: memory.New(), err: storeErr})

		if _, err := directory.AddToPhotoGallery(context.Background(), "alice", "img-2"); !errors.Is(err, storeErr) {
			t.Fatalf("expected store error, got %v", err)
		}
		user, err := directory.Profile("alice")
		if err != nil {
			t.Fatalf("Profile: %v", err)
		}
		if len(user.PhotoGallery) != 1 || user.PhotoGallery[0] != "img-1" {
			t.Fatalf("cache changed after failed update: %v", user.PhotoGallery)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		directory := newModifyDirectory(t, memory.New())

		called := false
		_, err := directory.modify(context.Background(), "ghost", func(*User) (persistence.Fields, error) {
			called = true
			return nil, nil
		})
		if !errors.Is(err, ErrNotFound) || called {
			t.Fatalf("expected ErrNotFound without calling fn, got %v called=%v", err, called)
		}
	})
}
