package domain

const (
	RoleAdmin    = "admin"
	RoleDialoger = "dialoger"
)

// User is a person registered in the app. Non-admin users are the dialogers
// whose payments show up in the exports.
type User struct {
	ID     string `json:"id" db:"id"`
	First  string `json:"first" db:"first_name"`
	Last   string `json:"last" db:"last_name"`
	Role   string `json:"role" db:"role"`
	Linked bool   `json:"linked" db:"linked"`
}

// DisplayName returns "first last". Missing parts stay empty.
func (u *User) DisplayName() string {
	return u.First + " " + u.Last
}

// Location is a stand where dialogers collect payments
type Location struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Town string `json:"town" db:"town"`
}

// DisplayName returns "name, town".
func (l *Location) DisplayName() string {
	return l.Name + ", " + l.Town
}
