package domain

// Record is implemented by every entity kept in a collection
type Record interface {
	RecordID() string
}

// User is the account returned by the /users lookup
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RecordID implements Record
func (u User) RecordID() string { return u.ID }
