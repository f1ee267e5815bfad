package models

import "time"

// Portfolio is the minimal portfolio shape the auth core needs: one default
// portfolio is created per registration. Everything else about portfolios
// lives outside this service.
type Portfolio struct {
	ID           int64
	UserID       int64
	Name         string
	Description  string
	BaseCurrency string
	CreatedAt    time.Time
	LastUpdated  time.Time
}
