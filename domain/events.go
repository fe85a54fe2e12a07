package domain

import (
	"time"
)

// EventType constants
const (
	ClassFileChanged      = "V1_CLASS_FILE_CHANGED"
	BytecodeValidated     = "V1_BYTECODE_VALIDATED"
	BytecodeRejected      = "V1_BYTECODE_REJECTED"
	HotSwapRequested      = "V1_HOTSWAP_REQUESTED"
	RedefinitionSucceeded = "V1_CLASS_REDEFINITION_SUCCEEDED"
	RedefinitionFailed    = "V1_CLASS_REDEFINITION_FAILED"
	InstancesUpdated      = "V1_INSTANCES_UPDATED"
)

// AggregateTypeClass is the aggregate type for hot-swappable classes
const AggregateTypeClass = "class"

// Event represents a domain event
type Event struct {
	ID            string      `json:"id"`
	AggregateID   string      `json:"aggregate_id"`
	AggregateType string      `json:"aggregate_type"`
	Type          string      `json:"type"`
	Version       int         `json:"version"`
	Timestamp     time.Time   `json:"timestamp"`
	Data          interface{} `json:"data"`
}

// ClassFileChangedEvent represents a change to a class file on disk
type ClassFileChangedEvent struct {
	ClassName  string    `json:"class_name"`
	SourcePath string    `json:"source_path"`
	FileSize   int64     `json:"file_size"`
	DetectedAt time.Time `json:"detected_at"`
}

// BytecodeValidatedEvent represents a successful bytecode validation
type BytecodeValidatedEvent struct {
	ClassName      string `json:"class_name"`
	BytecodeLength int    `json:"bytecode_length"`
	Compatible     bool   `json:"compatible"`
}

// BytecodeRejectedEvent represents a failed bytecode validation
type BytecodeRejectedEvent struct {
	ClassName string `json:"class_name"`
	Reason    string `json:"reason"`
}

// HotSwapRequestedEvent represents a request for a live class redefinition
type HotSwapRequestedEvent struct {
	ClassName   string `json:"class_name"`
	RequestedBy string `json:"requested_by"`
	Trigger     string `json:"trigger"`
}

// ClassRedefinitionSucceededEvent represents an applied redefinition
type ClassRedefinitionSucceededEvent struct {
	ClassName         string `json:"class_name"`
	AffectedInstances int    `json:"affected_instances"`
	DurationMillis    int64  `json:"duration_millis"`
}

// ClassRedefinitionFailedEvent represents a redefinition rejected by the runtime
type ClassRedefinitionFailedEvent struct {
	ClassName     string `json:"class_name"`
	FailureReason string `json:"failure_reason"`
	RuntimeError  string `json:"runtime_error"`
}

// InstancesUpdatedEvent represents migration of live instances to a new definition
type InstancesUpdatedEvent struct {
	ClassName        string `json:"class_name"`
	UpdatedInstances int    `json:"updated_instances"`
	UpdateMethod     string `json:"update_method"`
}
