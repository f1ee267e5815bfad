// Package models holds the persistence-level types shared by repositories
// and services.
package models

import "time"

// User is a registered principal. Email uniqueness is case-insensitive,
// username uniqueness is case-sensitive (both enforced by the schema).
// Users are deactivated, never deleted.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	BaseCurrency string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
}
