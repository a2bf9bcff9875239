package entity

import (
	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusCancelled  TaskStatus = "cancelled"
	StatusOnHold     TaskStatus = "on_hold"
)

// ParseTaskStatus falls back to pending on unrecognized text.
func ParseTaskStatus(s string) TaskStatus {
	switch TaskStatus(normalizeToken(s)) {
	case StatusPending, StatusInProgress, StatusDone, StatusCancelled, StatusOnHold:
		return TaskStatus(normalizeToken(s))
	default:
		return StatusPending
	}
}

// TaskStatusFromInput parses a caller-supplied status token and rejects
// anything unrecognized. Row parsing stays tolerant through ParseTaskStatus;
// input from a command must not be coerced into a different transition.
func TaskStatusFromInput(s string) (TaskStatus, error) {
	status := TaskStatus(normalizeToken(s))
	switch status {
	case StatusPending, StatusInProgress, StatusDone, StatusCancelled, StatusOnHold:
		return status, nil
	default:
		return "", apperr.Validation("unknown task status %q", s)
	}
}

// CanTransition encodes the task status machine:
//
//	pending -> in_progress -> done
//	pending|in_progress -> cancelled
//	pending|in_progress <-> on_hold
//
// done and cancelled are terminal for automatic transitions; Reopen on the
// task service is the only way out of done.
func CanTransition(from, to TaskStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case StatusPending:
		return to == StatusInProgress || to == StatusDone || to == StatusCancelled || to == StatusOnHold
	case StatusInProgress:
		return to == StatusDone || to == StatusCancelled || to == StatusOnHold
	case StatusOnHold:
		return to == StatusPending || to == StatusInProgress
	case StatusDone, StatusCancelled:
		return false
	default:
		return false
	}
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// ParseTaskPriority falls back to normal on unrecognized text.
func ParseTaskPriority(s string) TaskPriority {
	switch TaskPriority(normalizeToken(s)) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return TaskPriority(normalizeToken(s))
	default:
		return PriorityNormal
	}
}

type Task struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	BranchID       string       `json:"branchId"`
	AssignedTo     string       `json:"assignedTo"`
	AssignedBy     string       `json:"assignedBy"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	DueDate        string       `json:"dueDate,omitempty"`
	EstimatedHours float64      `json:"estimatedHours,omitempty"`
	ActualHours    float64      `json:"actualHours,omitempty"`
	CreatedAt      string       `json:"createdAt,omitempty"`
	UpdatedAt      string       `json:"updatedAt,omitempty"`
	CompletedAt    string       `json:"completedAt,omitempty"`
}

// Tasks column layout, 0-indexed.
const (
	taskColID = iota
	taskColTitle
	taskColDescription
	taskColBranchID
	taskColAssignedTo
	taskColAssignedBy
	taskColStatus
	taskColPriority
	taskColDueDate
	taskColEstimatedHours
	taskColActualHours
	taskColCreatedAt
	taskColUpdatedAt
	taskColCompletedAt
	taskColumns
)

var TaskSchema = Schema{
	Sheet:      rowstore.Sheet{Name: "Tasks", Columns: taskColumns},
	MinColumns: 8,
	KeyColumn:  taskColID,
}

func TaskFromRow(row rowstore.Row) (Task, error) {
	if err := TaskSchema.Check(row); err != nil {
		return Task{}, err
	}
	r := ReadRow(row)
	return Task{
		ID:             r.String(taskColID),
		Title:          r.String(taskColTitle),
		Description:    r.String(taskColDescription),
		BranchID:       r.String(taskColBranchID),
		AssignedTo:     r.String(taskColAssignedTo),
		AssignedBy:     r.String(taskColAssignedBy),
		Status:         ParseTaskStatus(r.String(taskColStatus)),
		Priority:       ParseTaskPriority(r.String(taskColPriority)),
		DueDate:        r.String(taskColDueDate),
		EstimatedHours: r.Float(taskColEstimatedHours),
		ActualHours:    r.Float(taskColActualHours),
		CreatedAt:      r.String(taskColCreatedAt),
		UpdatedAt:      r.String(taskColUpdatedAt),
		CompletedAt:    r.String(taskColCompletedAt),
	}, nil
}

func (t Task) Cells() []string {
	return WriteRow(taskColumns).
		SetString(taskColID, t.ID).
		SetString(taskColTitle, t.Title).
		SetString(taskColDescription, t.Description).
		SetString(taskColBranchID, t.BranchID).
		SetString(taskColAssignedTo, t.AssignedTo).
		SetString(taskColAssignedBy, t.AssignedBy).
		SetString(taskColStatus, string(t.Status)).
		SetString(taskColPriority, string(t.Priority)).
		SetString(taskColDueDate, t.DueDate).
		SetFloat(taskColEstimatedHours, t.EstimatedHours).
		SetFloat(taskColActualHours, t.ActualHours).
		SetString(taskColCreatedAt, t.CreatedAt).
		SetString(taskColUpdatedAt, t.UpdatedAt).
		SetString(taskColCompletedAt, t.CompletedAt).
		Cells()
}
