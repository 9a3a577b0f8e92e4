package entities

import (
	"encoding/json"
	"time"
)

// TaskType enumerates the closed set of task types.
type TaskType string

const (
	TaskTypeDunningRetry         TaskType = "dunning_retry"
	TaskTypeNotifyActionRequired TaskType = "notify_action_required"
	TaskTypeReportUsage          TaskType = "report_usage"
	TaskTypeSendWeeklyDigest     TaskType = "send_weekly_digest"
)

// TaskStatus enumerates task states. Transitions form the DAG
// pending→running→{completed,failed}; the janitor may reset running→pending.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// SystemMerchantID owns singleton system tasks such as the usage reporter.
const SystemMerchantID = "system"

// Task is a unit of durable scheduled work.
type Task struct {
	ID         int64           `json:"id"`
	MerchantID string          `json:"merchantId"`
	Type       TaskType        `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     TaskStatus      `json:"status"`
	RunAt      time.Time       `json:"runAt"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// DunningRetryPayload is the payload of a dunning_retry task.
type DunningRetryPayload struct {
	InvoiceID    string `json:"invoiceId"`
	AttemptCount int64  `json:"attemptCount,omitempty"`
}

// NotifyActionRequiredPayload is the payload of a notify_action_required task.
type NotifyActionRequiredPayload struct {
	InvoiceID        string `json:"invoiceId"`
	HostedInvoiceURL string `json:"hostedInvoiceUrl,omitempty"`
}

// DigestPayload is the (empty) payload of a send_weekly_digest task; the
// merchant id on the task row is the subject.
type DigestPayload struct{}

// CreateTaskInput is the client-facing create shape. Status, run_at and
// merchant_id are forced server-side.
type CreateTaskInput struct {
	Type    TaskType        `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// UserCreatableTaskTypes is the whitelist for POST /tasks.
var UserCreatableTaskTypes = map[TaskType]bool{
	TaskTypeDunningRetry:         true,
	TaskTypeNotifyActionRequired: true,
}
