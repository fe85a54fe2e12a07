package models

import (
	"time"

	"gorm.io/gorm"
)

// Event represents a domain event in the database
type Event struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	EventID       string         `gorm:"uniqueIndex" json:"event_id"`
	AggregateID   string         `gorm:"index" json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	EventType     string         `json:"event_type"`
	Data          []byte         `json:"data"`
	Version       int            `gorm:"index" json:"version"`
	Timestamp     time.Time      `json:"timestamp"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	Error         *string        `json:"error"`
	Processed     bool           `gorm:"index" json:"processed"`
}

// FaultReport represents a rendered debugging report in the database
type FaultReport struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SnapshotID  string    `gorm:"uniqueIndex" json:"snapshot_id"`
	AggregateID string    `gorm:"index" json:"aggregate_id"`
	ErrorType   string    `json:"error_type"`
	Severity    string    `json:"severity"`
	Strategy    string    `json:"strategy"`
	Automatic   bool      `json:"automatic"`
	Report      string    `json:"report"`
	CreatedAt   time.Time `json:"created_at"`
}
