package application

import (
	"time"

	"github.com/example/orientation-hub/internal/persistence"
)

// Category identifies an orientation task. Its name doubles as the
// leaderboard flag field and the prefix of its marker collection.
type Category string

const (
	CategoryDorm       Category = "Dorm"
	CategoryClass      Category = "Class"
	CategoryFacilities Category = "Facilities"
	CategoryFaculty    Category = "Faculty"
	CategoryFood       Category = "Food"
)

// Categories lists every task category in aggregation order.
var Categories = []Category{CategoryDorm, CategoryClass, CategoryFacilities, CategoryFaculty, CategoryFood}

// Collection returns the completion marker collection, e.g. Tasks.DormSelection.
func (c Category) Collection() persistence.Collection {
	return persistence.TaskCollection(string(c))
}

// selectionField is the user document field holding the latest selection.
func (c Category) selectionField() string {
	return string(c) + "Selection"
}

// User is a registered student profile.
type User struct {
	RecordID       string
	Username       string
	Password       string
	DisplayName    string
	ContactInfo    string
	AboutMe        string
	Interests      string
	ProfilePicture string
	CatalystNotes  string
	PhotoGallery   []string
	Selections     map[Category]string
}

// Selection returns the user's latest choice for the category.
func (u User) Selection(c Category) string {
	return u.Selections[c]
}

func (u User) clone() User {
	clone := u
	clone.PhotoGallery = append([]string(nil), u.PhotoGallery...)
	if u.Selections != nil {
		clone.Selections = make(map[Category]string, len(u.Selections))
		for k, v := range u.Selections {
			clone.Selections[k] = v
		}
	}
	return clone
}

// RegisterParams carries the fields accepted at sign up.
type RegisterParams struct {
	DisplayName string
	Username    string
	Password    string
	ContactInfo string
}

// Standing is one leaderboard row.
type Standing struct {
	Username string
	Points   int
}

// ForumMessage is a single forum post.
type ForumMessage struct {
	ID          string
	DisplayName string
	Message     string
	Time        string
}

// Session is an issued login token.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}
