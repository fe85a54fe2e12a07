package models

import (
	"time"
)

// ClassState is the denormalized read model for a class aggregate. It is
// rebuilt by the projection worker whenever a new event lands.
type ClassState struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	AggregateID       string    `gorm:"uniqueIndex" json:"aggregate_id"`
	ClassName         string    `gorm:"index" json:"class_name"`
	Version           int       `json:"version"`
	Status            string    `json:"status"`
	SwapRequests      int       `json:"swap_requests"`
	RedefinitionCount int       `json:"redefinition_count"`
	FailureCount      int       `json:"failure_count"`
	InstanceCount     int       `json:"instance_count"`
	LastFailureReason string    `json:"last_failure_reason"`
	LastSwapAt        time.Time `json:"last_swap_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
