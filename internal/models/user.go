package models

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsPrivileged bool
	CreatedAt    time.Time
}
