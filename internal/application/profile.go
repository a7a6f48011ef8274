package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/orientation-hub/internal/persistence"
)

// ProfileField names an editable single-valued profile attribute.
type ProfileField string

const (
	ProfileDisplayName   ProfileField = persistence.FieldDisplayName
	ProfilePassword      ProfileField = persistence.FieldPassword
	ProfilePicture       ProfileField = fieldProfilePicture
	ProfileAboutMe       ProfileField = fieldAboutMe
	ProfileContactInfo   ProfileField = fieldContactInfo
	ProfileInterests     ProfileField = fieldInterests
	ProfileCatalystNotes ProfileField = fieldCatalystNotes
)

// Value reads the field from u.
func (f ProfileField) Value(u User) (string, bool) {
	switch f {
	case ProfileDisplayName:
		return u.DisplayName, true
	case ProfilePassword:
		return u.Password, true
	case ProfilePicture:
		return u.ProfilePicture, true
	case ProfileAboutMe:
		return u.AboutMe, true
	case ProfileContactInfo:
		return u.ContactInfo, true
	case ProfileInterests:
		return u.Interests, true
	case ProfileCatalystNotes:
		return u.CatalystNotes, true
	}
	return "", false
}

func (f ProfileField) assign(u *User, value string) bool {
	switch f {
	case ProfileDisplayName:
		u.DisplayName = value
	case ProfilePassword:
		u.Password = value
	case ProfilePicture:
		u.ProfilePicture = value
	case ProfileAboutMe:
		u.AboutMe = value
	case ProfileContactInfo:
		u.ContactInfo = value
	case ProfileInterests:
		u.Interests = value
	case ProfileCatalystNotes:
		u.CatalystNotes = value
	default:
		return false
	}
	return true
}

// Profile returns the cached user or ErrNotFound.
func (d *UserDirectory) Profile(username string) (User, error) {
	user, ok := d.Lookup(username)
	if !ok {
		return User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return user, nil
}

// UpdateProfile overwrites one profile attribute of a cached user and persists it.
func (d *UserDirectory) UpdateProfile(ctx context.Context, username string, field ProfileField, value string) (User, error) {
	logger := serviceLogger(ctx, d.logger, "UserDirectory", "UpdateProfile", "username", username, "field", string(field))

	if _, ok := field.Value(User{}); !ok {
		err := &ValidationError{FieldErrors: map[string]string{"field": "unknown profile field " + string(field)}}
		logger.InfoContext(ctx, "profile update rejected", "error", err, "error_kind", ErrorKind(err))
		return User{}, err
	}

	user, err := d.modify(ctx, username, func(u *User) (persistence.Fields, error) {
		field.assign(u, value)
		return persistence.Fields{string(field): value}, nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "profile update failed", "error", err, "error_kind", ErrorKind(err))
		return User{}, err
	}
	logger.InfoContext(ctx, "profile updated")
	return user, nil
}

// AddToPhotoGallery appends an opaque image to the user's gallery.
func (d *UserDirectory) AddToPhotoGallery(ctx context.Context, username, image string) (User, error) {
	logger := serviceLogger(ctx, d.logger, "UserDirectory", "AddToPhotoGallery", "username", username)

	user, err := d.modify(ctx, username, func(u *User) (persistence.Fields, error) {
		u.PhotoGallery = append(u.PhotoGallery, image)
		encoded, err := json.Marshal(u.PhotoGallery)
		if err != nil {
			return nil, fmt.Errorf("encode photo gallery: %w", err)
		}
		return persistence.Fields{fieldPhotoGallery: string(encoded)}, nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "photo gallery update failed", "error", err, "error_kind", ErrorKind(err))
		return User{}, err
	}
	logger.InfoContext(ctx, "photo added", "gallery_size", len(user.PhotoGallery))
	return user, nil
}
