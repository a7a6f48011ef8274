package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/orientation-hub/internal/persistence"
)

// User document fields beyond the shared persistence names.
const (
	fieldContactInfo    = "ContactInfo"
	fieldAboutMe        = "AboutMe"
	fieldInterests      = "Interests"
	fieldProfilePicture = "ProfilePicture"
	fieldCatalystNotes  = "CatalystNotes"
	fieldPhotoGallery   = "PhotoGallery"
)

// UserDirectory is the in-memory catalogue of known users, mirrored from the
// UserDatabase.Users collection which owns the durable copy.
//
// Users are appended in discovery order and indexed by username; the first
// user cached under a username wins.
type UserDirectory struct {
	store  persistence.Store
	logger *slog.Logger

	mu     sync.RWMutex
	users  []*User
	byName map[string]*User

	// registerMu serialises the check-then-insert in Register.
	registerMu sync.Mutex
}

// NewUserDirectory builds a directory and loads every stored user.
func NewUserDirectory(ctx context.Context, store persistence.Store, logger *slog.Logger) (*UserDirectory, error) {
	d := &UserDirectory{
		store:  store,
		logger: defaultLogger(logger),
		byName: make(map[string]*User),
	}
	if err := d.LoadAll(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadAll replaces the cached users with the contents of the store.
func (d *UserDirectory) LoadAll(ctx context.Context) error {
	logger := serviceLogger(ctx, d.logger, "UserDirectory", "LoadAll")

	records, err := d.store.Find(ctx, persistence.UsersCollection, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load users", "error", err, "error_kind", ErrorKind(err))
		return fmt.Errorf("load users: %w", err)
	}

	users := make([]*User, 0, len(records))
	byName := make(map[string]*User, len(records))
	for _, record := range records {
		user, err := userFromRecord(record)
		if err != nil {
			logger.ErrorContext(ctx, "failed to decode user", "record_id", record.ID, "error", err)
			return err
		}
		if _, exists := byName[user.Username]; exists {
			continue
		}
		users = append(users, &user)
		byName[user.Username] = &user
	}

	d.mu.Lock()
	d.users = users
	d.byName = byName
	d.mu.Unlock()

	logger.InfoContext(ctx, "users loaded", "count", len(users))
	return nil
}

// Lookup returns the cached user with the given username.
func (d *UserDirectory) Lookup(username string) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.byName[username]
	if !ok {
		return User{}, false
	}
	return user.clone(), true
}

// Users returns a snapshot of the cached users in discovery order.
func (d *UserDirectory) Users() []User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]User, 0, len(d.users))
	for _, user := range d.users {
		out = append(out, user.clone())
	}
	return out
}

// CheckUsernameExists reports whether the store holds a user with the given
// username. A hit is cached so that later lookups succeed; repeated hits do
// not add duplicates.
func (d *UserDirectory) CheckUsernameExists(ctx context.Context, username string) (bool, error) {
	record, found, err := persistence.FindFirst(ctx, d.store, persistence.UsersCollection,
		persistence.Fields{persistence.FieldUsername: username})
	if err != nil {
		serviceLogger(ctx, d.logger, "UserDirectory", "CheckUsernameExists", "username", username).
			ErrorContext(ctx, "username lookup failed", "error", err, "error_kind", ErrorKind(err))
		return false, fmt.Errorf("check username: %w", err)
	}
	if !found {
		return false, nil
	}
	if err := d.cacheRecord(record); err != nil {
		return false, err
	}
	return true, nil
}

// CheckLogin reports whether the exact username and password pair is stored.
// On success the user is guaranteed to be resolvable through Lookup.
func (d *UserDirectory) CheckLogin(ctx context.Context, username, password string) (bool, error) {
	logger := serviceLogger(ctx, d.logger, "UserDirectory", "CheckLogin", "username", username)

	record, found, err := persistence.FindFirst(ctx, d.store, persistence.UsersCollection, persistence.Fields{
		persistence.FieldUsername: username,
		persistence.FieldPassword: password,
	})
	if err != nil {
		logger.ErrorContext(ctx, "credential lookup failed", "error", err, "error_kind", ErrorKind(err))
		return false, fmt.Errorf("check login: %w", err)
	}
	if !found {
		logger.InfoContext(ctx, "login rejected")
		return false, nil
	}
	if err := d.cacheRecord(record); err != nil {
		return false, err
	}
	logger.InfoContext(ctx, "login accepted")
	return true, nil
}

// Register persists and caches a new user. It returns false without error when
// the username is already taken in the store.
func (d *UserDirectory) Register(ctx context.Context, params RegisterParams) (bool, error) {
	logger := serviceLogger(ctx, d.logger, "UserDirectory", "Register", "username", params.Username)

	vErr := &ValidationError{}
	vErr.requireNonBlank(persistence.FieldUsername, params.Username, persistence.FieldPassword, params.Password)
	if err := vErr.errOrNil(); err != nil {
		logger.InfoContext(ctx, "registration rejected", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}

	d.registerMu.Lock()
	defer d.registerMu.Unlock()

	existing, err := d.store.Find(ctx, persistence.UsersCollection, persistence.Fields{persistence.FieldUsername: params.Username})
	if err != nil {
		logger.ErrorContext(ctx, "username lookup failed", "error", err, "error_kind", ErrorKind(err))
		return false, fmt.Errorf("register: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "username already taken")
		return false, nil
	}

	record, err := d.store.Insert(ctx, persistence.UsersCollection, persistence.Fields{
		persistence.FieldUsername:    params.Username,
		persistence.FieldPassword:    params.Password,
		persistence.FieldDisplayName: params.DisplayName,
		fieldContactInfo:             params.ContactInfo,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to persist user", "error", err, "error_kind", ErrorKind(err))
		return false, fmt.Errorf("register: %w", err)
	}
	if err := d.cacheRecord(record); err != nil {
		return false, err
	}

	logger.InfoContext(ctx, "user registered")
	return true, nil
}

// AllUsernames returns every stored username joined with ", ".
func (d *UserDirectory) AllUsernames(ctx context.Context) (string, error) {
	records, err := d.store.Find(ctx, persistence.UsersCollection, nil)
	if err != nil {
		serviceLogger(ctx, d.logger, "UserDirectory", "AllUsernames").
			ErrorContext(ctx, "failed to list users", "error", err, "error_kind", ErrorKind(err))
		return "", fmt.Errorf("list usernames: %w", err)
	}
	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.Get(persistence.FieldUsername))
	}
	return strings.Join(names, ", "), nil
}

// RemoveUser is called on logout. Users stay cached for the life of the process.
func (d *UserDirectory) RemoveUser(username string) {}

func (d *UserDirectory) cacheRecord(record persistence.Record) error {
	user, err := userFromRecord(record)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byName[user.Username]; exists {
		return nil
	}
	d.users = append(d.users, &user)
	d.byName[user.Username] = &user
	return nil
}

// modify applies fn to a copy of the cached user, persists the fields it
// returns onto the user document and only then publishes the copy. An error
// from fn leaves both the store and the cache untouched.
func (d *UserDirectory) modify(ctx context.Context, username string, fn func(*User) (persistence.Fields, error)) (User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	user, ok := d.byName[username]
	if !ok {
		return User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}

	updated := user.clone()
	set, err := fn(&updated)
	if err != nil {
		return User{}, fmt.Errorf("modify user %q: %w", username, err)
	}
	if len(set) > 0 {
		if _, err := d.store.Update(ctx, persistence.UsersCollection, user.RecordID, nil, set); err != nil {
			return User{}, fmt.Errorf("persist user %q: %w", username, err)
		}
	}
	*user = updated
	return updated.clone(), nil
}

func userFromRecord(record persistence.Record) (User, error) {
	user := User{
		RecordID:       record.ID,
		Username:       record.Get(persistence.FieldUsername),
		Password:       record.Get(persistence.FieldPassword),
		DisplayName:    record.Get(persistence.FieldDisplayName),
		ContactInfo:    record.Get(fieldContactInfo),
		AboutMe:        record.Get(fieldAboutMe),
		Interests:      record.Get(fieldInterests),
		ProfilePicture: record.Get(fieldProfilePicture),
		CatalystNotes:  record.Get(fieldCatalystNotes),
		Selections:     make(map[Category]string),
	}
	if raw := record.Get(fieldPhotoGallery); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user.PhotoGallery); err != nil {
			return User{}, fmt.Errorf("user %q photo gallery: %w", user.Username, ErrMalformedRecord)
		}
	}
	for _, c := range Categories {
		if v, ok := record.Fields[c.selectionField()]; ok {
			user.Selections[c] = v
		}
	}
	return user, nil
}
