package models

import "time"

// Config stores application settings like the current account selection
type Config struct {
	Key       string    `gorm:"primaryKey"` // Config key name
	Value     string    // Config value
	CreatedAt time.Time
	UpdatedAt time.Time
}
