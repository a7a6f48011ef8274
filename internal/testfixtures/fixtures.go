package testfixtures

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/orientation-hub/internal/persistence"
)

var userCounter uint64

var referenceTime = time.Date(2024, time.August, 26, 9, 30, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserFixture is a deterministic UserDatabase.Users document.
type UserFixture struct {
	Username    string
	Password    string
	DisplayName string
	ContactInfo string
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		Username:    fmt.Sprintf("student%03d", idx),
		Password:    fmt.Sprintf("pw-%03d", idx),
		DisplayName: fmt.Sprintf("Student %03d", idx),
		ContactInfo: fmt.Sprintf("student%03d@example.edu", idx),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUsername overrides the username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) { f.Username = username }
}

// WithPassword overrides the password.
func WithPassword(password string) UserOption {
	return func(f *UserFixture) { f.Password = password }
}

// WithDisplayName overrides the display name.
func WithDisplayName(name string) UserOption {
	return func(f *UserFixture) { f.DisplayName = name }
}

// Fields renders the fixture as a stored document.
func (f UserFixture) Fields() persistence.Fields {
	return persistence.Fields{
		persistence.FieldUsername:    f.Username,
		persistence.FieldPassword:    f.Password,
		persistence.FieldDisplayName: f.DisplayName,
		"ContactInfo":                f.ContactInfo,
	}
}

// SeedUser inserts the fixture into UserDatabase.Users.
func SeedUser(tb testing.TB, store persistence.Store, fixture UserFixture) persistence.Record {
	tb.Helper()
	record, err := store.Insert(context.Background(), persistence.UsersCollection, fixture.Fields())
	if err != nil {
		tb.Fatalf("failed to seed user %s: %v", fixture.Username, err)
	}
	return record
}

// LeaderboardEntry is a Tasks.Leaderboard document. Completed lists the
// categories whose flag starts as "True".
type LeaderboardEntry struct {
	Username  string
	Points    int
	Completed []string
}

// Fields renders the entry with every category flag present.
func (e LeaderboardEntry) Fields() persistence.Fields {
	fields := persistence.Fields{
		persistence.FieldUsername: e.Username,
		persistence.FieldPoints:   strconv.Itoa(e.Points),
	}
	for _, category := range []string{"Dorm", "Class", "Facilities", "Faculty", "Food"} {
		fields[category] = "False"
	}
	for _, category := range e.Completed {
		fields[category] = "True"
	}
	return fields
}

// SeedLeaderboardEntry inserts entry into Tasks.Leaderboard.
func SeedLeaderboardEntry(tb testing.TB, store persistence.Store, entry LeaderboardEntry) persistence.Record {
	tb.Helper()
	record, err := store.Insert(context.Background(), persistence.LeaderboardCollection, entry.Fields())
	if err != nil {
		tb.Fatalf("failed to seed leaderboard entry %s: %v", entry.Username, err)
	}
	return record
}

// MustFind returns every record in collection matching filter.
func MustFind(tb testing.TB, store persistence.Store, collection persistence.Collection, filter persistence.Fields) []persistence.Record {
	tb.Helper()
	records, err := store.Find(context.Background(), collection, filter)
	if err != nil {
		tb.Fatalf("failed to read %s: %v", collection, err)
	}
	return records
}
