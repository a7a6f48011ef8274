package persistence

// Fields is a flat document: field name to string value.
type Fields map[string]string

// Clone returns an independent copy of the fields.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	clone := make(Fields, len(f))
	for k, v := range f {
		clone[k] = v
	}
	return clone
}

// Matches reports whether every entry of filter holds in f. An empty filter
// matches everything.
func (f Fields) Matches(filter Fields) bool {
	for k, want := range filter {
		got, ok := f[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Record is a stored document together with its store assigned identifier.
type Record struct {
	ID     string
	Fields Fields
}

// Get returns the named field or the empty string.
func (r Record) Get(name string) string {
	return r.Fields[name]
}

// Collection names a document collection inside a database.
type Collection struct {
	Database string
	Name     string
}

// String renders the collection as "Database.Name".
func (c Collection) String() string {
	return c.Database + "." + c.Name
}

// Well-known collections.
var (
	UsersCollection       = Collection{Database: "UserDatabase", Name: "Users"}
	LeaderboardCollection = Collection{Database: "Tasks", Name: "Leaderboard"}
	MessagesCollection    = Collection{Database: "Forum", Name: "Messages"}
	ClassesCollection     = Collection{Database: "ClassDB", Name: "Classes"}
)

// TaskCollection returns the completion marker collection for a task
// category, e.g. Tasks.DormSelection.
func TaskCollection(category string) Collection {
	return Collection{Database: "Tasks", Name: category + "Selection"}
}

// Field names shared by several collections.
const (
	FieldUsername    = "Username"
	FieldPassword    = "Password"
	FieldDisplayName = "DisplayName"
	FieldPoints      = "Points"
	FieldMessage     = "Message"
	FieldTime        = "Time"
)
