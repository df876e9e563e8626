package models

import "time"

// User is the durable identity record stored in the users table. RefreshToken is the single
// live refresh-token slot for the identity; nil means no session can be resumed.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Contact      *string   `db:"contact" json:"contact,omitempty"`
	RefreshToken *string   `db:"refresh_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// HasRefreshToken reports whether the stored slot equals the presented token.
func (u *User) HasRefreshToken(token string) bool {
	if u == nil || u.RefreshToken == nil || token == "" {
		return false
	}
	return *u.RefreshToken == token
}

// UserFilter captures search criteria for listing users.
type UserFilter struct {
	Query     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
	PageItems  int `json:"page_items"`
}

// UserInfo is the public projection of a user.
type UserInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Contact   *string   `json:"contact,omitempty"`
	IsMe      bool      `json:"is_me,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Info projects the user for responses.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Contact: u.Contact, CreatedAt: u.CreatedAt}
}
