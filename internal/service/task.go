package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

type TaskService struct {
	store *rowstore.Store
	now   func() time.Time
	newID func() string
}

func NewTaskService(store *rowstore.Store) *TaskService {
	return &TaskService{store: store, now: defaultNow, newID: defaultNewID}
}

// TaskFilter narrows ListTasks in memory after the full scan; the backing
// store cannot filter server-side. Empty fields match everything.
type TaskFilter struct {
	Status     string `json:"status,omitempty"`
	Priority   string `json:"priority,omitempty"`
	AssignedTo string `json:"assignedTo,omitempty"`
	BranchID   string `json:"branchId,omitempty"`
	Search     string `json:"search,omitempty"`
}

func (f TaskFilter) matches(t entity.Task) bool {
	if f.Status != "" && string(t.Status) != strings.ToLower(strings.TrimSpace(f.Status)) {
		return false
	}
	if f.Priority != "" && string(t.Priority) != strings.ToLower(strings.TrimSpace(f.Priority)) {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.BranchID != "" && t.BranchID != f.BranchID {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

type TaskPage struct {
	Tasks    []entity.Task `json:"tasks"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	HasMore  bool          `json:"hasMore"`
}

const defaultPageSize = 50

// ListTasks scans the Tasks sheet, filters in memory and paginates by
// slicing. Soft-deleted (blank) and malformed rows are skipped.
func (s *TaskService) ListTasks(ctx context.Context, filter TaskFilter, page, pageSize int) (TaskPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	rows, err := s.store.Scan(ctx, entity.TaskSchema.Sheet)
	if err != nil {
		return TaskPage{}, err
	}
	tasks := make([]entity.Task, 0, len(rows))
	for _, row := range rows {
		task, err := entity.TaskFromRow(row)
		if err != nil || task.ID == "" {
			continue
		}
		if filter.matches(task) {
			tasks = append(tasks, task)
		}
	}
	total := len(tasks)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return TaskPage{
		Tasks:    tasks[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  end < total,
	}, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (entity.Task, error) {
	task, _, err := s.resolveTask(ctx, taskID)
	return task, err
}

// resolveTask re-resolves the task's row number by key scan. The number is
// valid only until the next possible external mutation, so callers write
// immediately after resolving and never hold it across calls.
func (s *TaskService) resolveTask(ctx context.Context, taskID string) (entity.Task, int, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return entity.Task{}, 0, apperr.Validation("task id is required")
	}
	row, found, err := s.store.FindByKey(ctx, entity.TaskSchema.Sheet, entity.TaskSchema.KeyColumn, taskID)
	if err != nil {
		return entity.Task{}, 0, err
	}
	if !found {
		return entity.Task{}, 0, apperr.NotFound("task %s", taskID)
	}
	task, err := entity.TaskFromRow(row)
	if err != nil {
		return entity.Task{}, 0, err
	}
	return task, row.Number, nil
}

type CreateTaskRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	BranchID       string  `json:"branchId"`
	AssignedTo     string  `json:"assignedTo"`
	Priority       string  `json:"priority"`
	DueDate        string  `json:"dueDate,omitempty"`
	EstimatedHours float64 `json:"estimatedHours,omitempty"`
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (entity.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return entity.Task{}, apperr.Validation("task title is required")
	}
	if strings.TrimSpace(req.AssignedTo) == "" {
		return entity.Task{}, apperr.Validation("task assignee is required")
	}
	if req.DueDate != "" {
		if _, ok := parseDate(req.DueDate); !ok {
			return entity.Task{}, apperr.Validation("due date %q is not YYYY-MM-DD", req.DueDate)
		}
	}
	now := timestamp(s.now())
	task := entity.Task{
		ID:             s.newID(),
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		BranchID:       req.BranchID,
		AssignedTo:     strings.TrimSpace(req.AssignedTo),
		AssignedBy:     userID,
		Status:         entity.StatusPending,
		Priority:       entity.ParseTaskPriority(req.Priority),
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.store.Append(ctx, entity.TaskSchema.Sheet, task.Cells()); err != nil {
		return entity.Task{}, err
	}
	return task, nil
}

// UpdateTaskRequest carries partial updates; nil fields are left untouched.
// Status is deliberately absent: status moves through UpdateStatus so the
// transition rules cannot be bypassed.
type UpdateTaskRequest struct {
	ID             string   `json:"id"`
	Title          *string  `json:"title,omitempty"`
	Description    *string  `json:"description,omitempty"`
	AssignedTo     *string  `json:"assignedTo,omitempty"`
	Priority       *string  `json:"priority,omitempty"`
	DueDate        *string  `json:"dueDate,omitempty"`
	EstimatedHours *float64 `json:"estimatedHours,omitempty"`
	ActualHours    *float64 `json:"actualHours,omitempty"`
}

func (s *TaskService) UpdateTask(ctx context.Context, req UpdateTaskRequest) (entity.Task, error) {
	task, rowNumber, err := s.resolveTask(ctx, req.ID)
	if err != nil {
		return entity.Task{}, err
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return entity.Task{}, apperr.Validation("task title cannot be blank")
		}
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.AssignedTo != nil {
		task.AssignedTo = strings.TrimSpace(*req.AssignedTo)
	}
	if req.Priority != nil {
		task.Priority = entity.ParseTaskPriority(*req.Priority)
	}
	if req.DueDate != nil {
		if *req.DueDate != "" {
			if _, ok := parseDate(*req.DueDate); !ok {
				return entity.Task{}, apperr.Validation("due date %q is not YYYY-MM-DD", *req.DueDate)
			}
		}
		task.DueDate = *req.DueDate
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = *req.EstimatedHours
	}
	if req.ActualHours != nil {
		task.ActualHours = *req.ActualHours
	}
	task.UpdatedAt = timestamp(s.now())
	if err := s.store.Update(ctx, entity.TaskSchema.Sheet, rowNumber, task.Cells()); err != nil {
		return entity.Task{}, err
	}
	return task, nil
}

// UpdateStatus applies one legal transition. Entering done stamps the
// completion timestamp; done and cancelled admit no further automatic
// transitions (see Reopen).
func (s *TaskService) UpdateStatus(ctx context.Context, taskID string, to entity.TaskStatus) (entity.Task, error) {
	task, rowNumber, err := s.resolveTask(ctx, taskID)
	if err != nil {
		return entity.Task{}, err
	}
	if !entity.CanTransition(task.Status, to) {
		return entity.Task{}, apperr.Validation("task %s cannot move from %s to %s", taskID, task.Status, to)
	}
	task.Status = to
	task.UpdatedAt = timestamp(s.now())
	if to == entity.StatusDone {
		task.CompletedAt = task.UpdatedAt
	}
	if err := s.store.Update(ctx, entity.TaskSchema.Sheet, rowNumber, task.Cells()); err != nil {
		return entity.Task{}, err
	}
	return task, nil
}

// Reopen is the explicit manual transition out of done: back to pending with
// the completion timestamp cleared.
func (s *TaskService) Reopen(ctx context.Context, taskID string) (entity.Task, error) {
	task, rowNumber, err := s.resolveTask(ctx, taskID)
	if err != nil {
		return entity.Task{}, err
	}
	if task.Status != entity.StatusDone {
		return entity.Task{}, apperr.Validation("task %s is %s, only done tasks can be reopened", taskID, task.Status)
	}
	task.Status = entity.StatusPending
	task.CompletedAt = ""
	task.UpdatedAt = timestamp(s.now())
	if err := s.store.Update(ctx, entity.TaskSchema.Sheet, rowNumber, task.Cells()); err != nil {
		return entity.Task{}, err
	}
	return task, nil
}

// DeleteTask blanks the task's row in place, preserving the row numbers of
// everything below it.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	_, rowNumber, err := s.resolveTask(ctx, taskID)
	if err != nil {
		return err
	}
	return s.store.SoftDelete(ctx, entity.TaskSchema.Sheet, rowNumber)
}

type TaskStats struct {
	Total                 int            `json:"total"`
	ByStatus              map[string]int `json:"byStatus"`
	ByPriority            map[string]int `json:"byPriority"`
	Overdue               int            `json:"overdue"`
	CompletedToday        int            `json:"completedToday"`
	AverageCompletionHrs  float64        `json:"averageCompletionHours"`
	CompletionSampleSize  int            `json:"completionSampleSize"`
}

// Stats aggregates the materialized task set. Every number is computed from
// the rows; when no completed task carries parseable timestamps the average
// is zero with a zero sample size rather than an invented figure.
func (s *TaskService) Stats(ctx context.Context, branchID string) (TaskStats, error) {
	page, err := s.ListTasks(ctx, TaskFilter{BranchID: branchID}, 1, 1<<30)
	if err != nil {
		return TaskStats{}, err
	}
	now := s.now()
	today := now.Format(dateLayout)
	stats := TaskStats{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}
	var completionSum time.Duration
	for _, task := range page.Tasks {
		stats.Total++
		stats.ByStatus[string(task.Status)]++
		stats.ByPriority[string(task.Priority)]++
		if due, ok := parseDate(task.DueDate); ok &&
			due.Before(now.Truncate(24*time.Hour)) &&
			task.Status != entity.StatusDone && task.Status != entity.StatusCancelled {
			stats.Overdue++
		}
		if task.Status == entity.StatusDone {
			if done, ok := parseTimestamp(task.CompletedAt); ok {
				if done.Format(dateLayout) == today {
					stats.CompletedToday++
				}
				if created, ok := parseTimestamp(task.CreatedAt); ok && done.After(created) {
					completionSum += done.Sub(created)
					stats.CompletionSampleSize++
				}
			}
		}
	}
	if stats.CompletionSampleSize > 0 {
		stats.AverageCompletionHrs = completionSum.Hours() / float64(stats.CompletionSampleSize)
	}
	return stats, nil
}

// SortTasks orders a slice in place by one of the sortable fields. Unknown
// fields leave the scan order untouched.
func SortTasks(tasks []entity.Task, field string, descending bool) {
	var less func(a, b entity.Task) bool
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "title":
		less = func(a, b entity.Task) bool { return a.Title < b.Title }
	case "due_date", "duedate":
		less = func(a, b entity.Task) bool { return a.DueDate < b.DueDate }
	case "created_at", "createdat":
		less = func(a, b entity.Task) bool { return a.CreatedAt < b.CreatedAt }
	case "priority":
		rank := map[entity.TaskPriority]int{
			entity.PriorityLow: 0, entity.PriorityNormal: 1,
			entity.PriorityHigh: 2, entity.PriorityUrgent: 3,
		}
		less = func(a, b entity.Task) bool { return rank[a.Priority] < rank[b.Priority] }
	default:
		return
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if descending {
			return less(tasks[j], tasks[i])
		}
		return less(tasks[i], tasks[j])
	})
}
