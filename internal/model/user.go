package model

import "time"

// User is a registered portal account. Username and email compare
// case-sensitively, so the MySQL columns use a binary collation.
type User struct {
	ID           string    `json:"id" gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(64) collate utf8mb4_bin;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"type:varchar(255) collate utf8mb4_bin;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the subset of a user that is safe to return to clients.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public returns the client-facing view of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
