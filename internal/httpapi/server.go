// Package httpapi is the command surface the GUI shell invokes. One route per
// domain-service operation; every response is either a typed JSON payload or
// a single human-readable error string.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/export"
	"github.com/sheetdesk/sheetdesk/internal/service"
)

const maxBodyBytes = 1 << 20

type Services struct {
	Branches      *service.BranchService
	Tasks         *service.TaskService
	Notifications *service.NotificationService
	Workload      *service.WorkloadService
	Metrics       *service.MetricsService
}

// ServerConfig is the reloadable slice of the app config. UpdateConfig swaps
// it atomically when the config file changes on disk.
type ServerConfig struct {
	APIToken           string
	NotifyPollInterval time.Duration
	ExportsDir         string
}

type Server struct {
	svc     Services
	cfg     atomic.Pointer[ServerConfig]
	metrics http.Handler
}

func NewServer(svc Services, cfg ServerConfig) *Server {
	if cfg.NotifyPollInterval <= 0 {
		cfg.NotifyPollInterval = 30 * time.Second
	}
	if cfg.ExportsDir == "" {
		cfg.ExportsDir = "exports"
	}
	s := &Server{svc: svc, metrics: promhttp.Handler()}
	s.cfg.Store(&cfg)
	return s
}

func (s *Server) UpdateConfig(cfg ServerConfig) {
	if cfg.NotifyPollInterval <= 0 {
		cfg.NotifyPollInterval = 30 * time.Second
	}
	if cfg.ExportsDir == "" {
		cfg.ExportsDir = "exports"
	}
	s.cfg.Store(&cfg)
}

func (s *Server) config() ServerConfig {
	return *s.cfg.Load()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if r.URL.Path == "/metrics" && r.Method == http.MethodGet {
		s.metrics.ServeHTTP(w, r)
		return
	}

	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "missing or invalid API token")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "v1" {
		writeError(w, http.StatusNotFound, "route not found")
		return
	}

	switch parts[1] {
	case "branches":
		s.routeBranches(w, r, parts[2:])
	case "selection":
		s.routeSelection(w, r, parts[2:])
	case "tasks":
		s.routeTasks(w, r, parts[2:])
	case "notifications":
		s.routeNotifications(w, r, parts[2:])
	case "workload":
		s.routeWorkload(w, r, parts[2:])
	case "timetracking":
		s.routeTimeTracking(w, r, parts[2:])
	case "metrics":
		s.routeMetrics(w, r, parts[2:])
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

func (s *Server) authorized(r *http.Request) bool {
	token := s.config().APIToken
	if token == "" {
		return true
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	return strings.HasPrefix(header, "Bearer ") && strings.TrimPrefix(header, "Bearer ") == token
}

// --- branches ---

func (s *Server) routeBranches(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		branches, err := s.svc.Branches.ListBranches(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"branches": branches, "total": len(branches)})
	case len(rest) == 1 && rest[0] == "select" && r.Method == http.MethodPost:
		var req struct {
			UserID   string `json:"userId"`
			BranchID string `json:"branchId"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		selection, err := s.svc.Branches.SelectBranch(r.Context(), req.UserID, req.BranchID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, selection)
	case len(rest) == 1 && r.Method == http.MethodGet:
		branch, err := s.svc.Branches.GetBranch(r.Context(), rest[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, branch)
	case len(rest) == 2 && rest[1] == "validate" && r.Method == http.MethodGet:
		valid, err := s.svc.Branches.ValidateBranch(r.Context(), rest[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

func (s *Server) routeSelection(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) != 0 {
		writeError(w, http.StatusNotFound, "route not found")
		return
	}
	userID := r.URL.Query().Get("user_id")
	switch r.Method {
	case http.MethodGet:
		selection, err := s.svc.Branches.GetSelection(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, selection)
	case http.MethodDelete:
		if err := s.svc.Branches.ClearSelection(r.Context(), userID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

// --- tasks ---

func (s *Server) routeTasks(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := r.URL.Query()
		filter := service.TaskFilter{
			Status:     q.Get("status"),
			Priority:   q.Get("priority"),
			AssignedTo: q.Get("assigned_to"),
			BranchID:   q.Get("branch_id"),
			Search:     q.Get("search"),
		}
		page, _ := strconv.Atoi(q.Get("page"))
		pageSize, _ := strconv.Atoi(q.Get("page_size"))
		result, err := s.svc.Tasks.ListTasks(r.Context(), filter, page, pageSize)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if sortField := q.Get("sort"); sortField != "" {
			service.SortTasks(result.Tasks, sortField, q.Get("order") == "desc")
		}
		writeJSON(w, http.StatusOK, result)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var req struct {
			UserID string `json:"userId"`
			service.CreateTaskRequest
		}
		if !decodeBody(w, r, &req) {
			return
		}
		task, err := s.svc.Tasks.CreateTask(r.Context(), req.UserID, req.CreateTaskRequest)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	case len(rest) == 1 && rest[0] == "stats" && r.Method == http.MethodGet:
		stats, err := s.svc.Tasks.Stats(r.Context(), r.URL.Query().Get("branch_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	case len(rest) == 1 && r.Method == http.MethodGet:
		task, err := s.svc.Tasks.GetTask(r.Context(), rest[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case len(rest) == 1 && r.Method == http.MethodPatch:
		var req service.UpdateTaskRequest
		if !decodeBody(w, r, &req) {
			return
		}
		req.ID = rest[0]
		task, err := s.svc.Tasks.UpdateTask(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case len(rest) == 1 && r.Method == http.MethodDelete:
		if err := s.svc.Tasks.DeleteTask(r.Context(), rest[0]); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	case len(rest) == 2 && rest[1] == "status" && r.Method == http.MethodPost:
		var req struct {
			Status string `json:"status"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		status, err := entity.TaskStatusFromInput(req.Status)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		task, err := s.svc.Tasks.UpdateStatus(r.Context(), rest[0], status)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case len(rest) == 2 && rest[1] == "reopen" && r.Method == http.MethodPost:
		task, err := s.svc.Tasks.Reopen(r.Context(), rest[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

// --- notifications ---

func (s *Server) routeNotifications(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		q := r.URL.Query()
		filter := service.NotificationFilter{
			Type:     q.Get("type"),
			Priority: q.Get("priority"),
		}
		if raw := q.Get("read"); raw != "" {
			read := raw == "true"
			filter.Read = &read
		}
		list, err := s.svc.Notifications.List(r.Context(), q.Get("user_id"), filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case len(rest) == 0 && r.Method == http.MethodPost:
		var req service.CreateNotificationRequest
		if !decodeBody(w, r, &req) {
			return
		}
		notification, err := s.svc.Notifications.Create(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, notification)
	case len(rest) == 1 && rest[0] == "read" && r.Method == http.MethodPost:
		var req struct {
			UserID          string   `json:"userId"`
			NotificationIDs []string `json:"notificationIds"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.svc.Notifications.MarkRead(r.Context(), req.UserID, req.NotificationIDs); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case len(rest) == 1 && rest[0] == "read-all" && r.Method == http.MethodPost:
		var req struct {
			UserID string `json:"userId"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.svc.Notifications.MarkAllRead(r.Context(), req.UserID); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case len(rest) == 1 && rest[0] == "stats" && r.Method == http.MethodGet:
		stats, err := s.svc.Notifications.Stats(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	case len(rest) == 1 && rest[0] == "stream" && r.Method == http.MethodGet:
		s.handleNotificationStream(w, r)
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

// --- workload ---

func (s *Server) routeWorkload(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		workload, err := s.svc.Workload.GetWorkload(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, workload)
	case len(rest) == 1 && rest[0] == "schedule" && r.Method == http.MethodPut:
		var scheduleEntry entity.ScheduleEntry
		if !decodeBody(w, r, &scheduleEntry) {
			return
		}
		if err := s.svc.Workload.UpsertSchedule(r.Context(), scheduleEntry); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scheduleEntry)
	case len(rest) == 1 && rest[0] == "validate" && r.Method == http.MethodGet:
		validation, err := s.svc.Workload.ValidateWorkHours(r.Context(), r.URL.Query().Get("user_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, validation)
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

func (s *Server) routeTimeTracking(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) != 0 || r.Method != http.MethodPost {
		writeError(w, http.StatusNotFound, "route not found")
		return
	}
	var timeEntry entity.TimeEntry
	if !decodeBody(w, r, &timeEntry) {
		return
	}
	if err := s.svc.Workload.LogTime(r.Context(), timeEntry); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, timeEntry)
}

// --- metrics ---

func (s *Server) routeMetrics(w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 1 && rest[0] == "report" && r.Method == http.MethodGet:
		report, err := s.svc.Metrics.Report(r.Context(), metricsFilterFromQuery(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	case len(rest) == 1 && rest[0] == "forecast" && r.Method == http.MethodGet:
		days, _ := strconv.Atoi(r.URL.Query().Get("days"))
		if days == 0 {
			days = 7
		}
		forecast, err := s.svc.Metrics.Forecast(r.Context(), metricsFilterFromQuery(r), days)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, forecast)
	case len(rest) == 1 && rest[0] == "export" && r.Method == http.MethodPost:
		var req struct {
			Filter service.MetricsFilter `json:"filter"`
			Format string                `json:"format"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		report, err := s.svc.Metrics.Report(r.Context(), req.Filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		path, err := export.WriteReport(s.config().ExportsDir, report, req.Format)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"path": path})
	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

func metricsFilterFromQuery(r *http.Request) service.MetricsFilter {
	q := r.URL.Query()
	return service.MetricsFilter{
		UserID:    q.Get("user_id"),
		BranchID:  q.Get("branch_id"),
		StartDate: q.Get("start"),
		EndDate:   q.Get("end"),
	}
}

// --- helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError emits the flattened error contract: a single human-readable
// string, no structured codes.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), apperr.Message(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
