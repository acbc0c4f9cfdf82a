package models

import "time"

const ExecutionsCollection = "scheduler_executions"

// ExecutionStatus is the state of one task run.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// Trigger records what started a run.
type Trigger string

const (
	TriggerCron   Trigger = "cron"
	TriggerManual Trigger = "manual"
)

// Task describes a registered task and its schedule.
type Task struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schedule    string     `json:"schedule"`
	Timeout     Duration   `json:"timeout"`
	Running     bool       `json:"running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// TaskExecution is the persisted record of one run.
type TaskExecution struct {
	ID          string          `json:"id" bson:"_id"`
	TaskName    string          `json:"task_name" bson:"task_name"`
	Trigger     Trigger         `json:"trigger" bson:"trigger"`
	Status      ExecutionStatus `json:"status" bson:"status"`
	StartedAt   time.Time       `json:"started_at" bson:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Duration    Duration        `json:"duration" bson:"duration"`
	Output      string          `json:"output,omitempty" bson:"output,omitempty"`
	Error       string          `json:"error,omitempty" bson:"error,omitempty"`
}
