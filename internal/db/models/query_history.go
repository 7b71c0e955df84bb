package models

import "time"

// QueryHistory records one SuiteQL execution for later review.
type QueryHistory struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	AccountID  string    `gorm:"index" json:"account_id"`
	Query      string    `gorm:"type:text" json:"query"`
	RowCount   int       `json:"row_count"`
	Status     string    `json:"status"` // "ok" or "error"
	Error      string    `json:"error,omitempty"`
	ExecutedAt time.Time `gorm:"index" json:"executed_at"`
}
