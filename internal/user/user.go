package user

import "time"

// User is a stored account. PasswordHash never leaves this package's
// callers through JSON.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Age          int       `json:"age"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the input for creating a user. Password is plaintext and is
// hashed by the Store before anything is persisted.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Age       int
	Role      string
}

// Public is the externally visible shape of a user.
type Public struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Age       int        `json:"age"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Public returns the public fields without timestamps.
func (u User) Public() Public {
	return Public{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Age: u.Age}
}

// PublicWithCreated returns the public fields plus the creation timestamp.
func (u User) PublicWithCreated() Public {
	p := u.Public()
	created := u.CreatedAt
	p.CreatedAt = &created
	return p
}
