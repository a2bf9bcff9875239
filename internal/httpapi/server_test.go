package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
	"github.com/sheetdesk/sheetdesk/internal/service"
)

// fakeTransport keeps one grid per sheet and answers the A1 ranges the row
// store produces. Row 2 maps to grid index 0.
type fakeTransport struct {
	grids    map[string][][]string
	failWith error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{grids: map[string][][]string{}}
}

func (f *fakeTransport) seed(sheet string, rows ...[]string) {
	f.grids[sheet] = append(f.grids[sheet], rows...)
}

func splitA1(a1Range string) (sheet, ref string, err error) {
	parts := strings.SplitN(a1Range, "!", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed range %q", a1Range)
	}
	return parts[0], parts[1], nil
}

func parseCellRef(ref string) (col, rowNumber int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A') + 1
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("malformed cell %q", ref)
	}
	rowNumber, err = strconv.Atoi(ref[i:])
	return col - 1, rowNumber, err
}

func (f *fakeTransport) ReadRange(_ context.Context, a1Range string) ([][]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	sheet, _, err := splitA1(a1Range)
	if err != nil {
		return nil, err
	}
	grid := f.grids[sheet]
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (f *fakeTransport) WriteRange(_ context.Context, a1Range string, rows [][]string) error {
	if f.failWith != nil {
		return f.failWith
	}
	sheet, ref, err := splitA1(a1Range)
	if err != nil {
		return err
	}
	start := ref
	if colon := strings.IndexByte(ref, ':'); colon >= 0 {
		start = ref[:colon]
	}
	_, rowNumber, err := parseCellRef(start)
	if err != nil {
		return err
	}
	index := rowNumber - 2
	for len(f.grids[sheet]) <= index {
		f.grids[sheet] = append(f.grids[sheet], nil)
	}
	f.grids[sheet][index] = append([]string(nil), rows[0]...)
	return nil
}

func (f *fakeTransport) AppendRange(_ context.Context, a1Range string, rows [][]string) error {
	if f.failWith != nil {
		return f.failWith
	}
	sheet, _, err := splitA1(a1Range)
	if err != nil {
		return err
	}
	f.grids[sheet] = append(f.grids[sheet], rows...)
	return nil
}

func (f *fakeTransport) WriteCell(_ context.Context, a1Range, value string) error {
	if f.failWith != nil {
		return f.failWith
	}
	sheet, ref, err := splitA1(a1Range)
	if err != nil {
		return err
	}
	col, rowNumber, err := parseCellRef(ref)
	if err != nil {
		return err
	}
	index := rowNumber - 2
	for len(f.grids[sheet]) <= index {
		f.grids[sheet] = append(f.grids[sheet], nil)
	}
	row := f.grids[sheet][index]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	f.grids[sheet][index] = row
	return nil
}

func newTestServer(transport *fakeTransport, cfg ServerConfig) *Server {
	store := rowstore.New(transport)
	return NewServer(Services{
		Branches:      service.NewBranchService(store),
		Tasks:         service.NewTaskService(store),
		Notifications: service.NewNotificationService(store),
		Workload:      service.NewWorkloadService(store),
		Metrics:       service.NewMetricsService(store),
	}, cfg)
}

func do(t *testing.T, server *Server, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthAndMetricsSkipAuth(t *testing.T) {
	server := newTestServer(newFakeTransport(), ServerConfig{APIToken: "secret"})

	if got := do(t, server, http.MethodGet, "/health", "", "").Code; got != http.StatusOK {
		t.Errorf("health: %d", got)
	}
	if got := do(t, server, http.MethodGet, "/metrics", "", "").Code; got != http.StatusOK {
		t.Errorf("metrics: %d", got)
	}
}

func TestBearerTokenGuardsAPIRoutes(t *testing.T) {
	server := newTestServer(newFakeTransport(), ServerConfig{APIToken: "secret"})

	if got := do(t, server, http.MethodGet, "/v1/branches", "", "").Code; got != http.StatusUnauthorized {
		t.Errorf("no token: %d", got)
	}
	if got := do(t, server, http.MethodGet, "/v1/branches", "wrong", "").Code; got != http.StatusUnauthorized {
		t.Errorf("wrong token: %d", got)
	}
	if got := do(t, server, http.MethodGet, "/v1/branches", "secret", "").Code; got != http.StatusOK {
		t.Errorf("valid token: %d", got)
	}

	// Without a configured token the surface is open (local desktop use).
	open := newTestServer(newFakeTransport(), ServerConfig{})
	if got := do(t, open, http.MethodGet, "/v1/branches", "", "").Code; got != http.StatusOK {
		t.Errorf("open server: %d", got)
	}
}

func TestUpdateConfigSwapsTokenWithoutRestart(t *testing.T) {
	server := newTestServer(newFakeTransport(), ServerConfig{APIToken: "old"})

	if got := do(t, server, http.MethodGet, "/v1/branches", "old", "").Code; got != http.StatusOK {
		t.Fatalf("old token before swap: %d", got)
	}
	server.UpdateConfig(ServerConfig{APIToken: "new"})
	if got := do(t, server, http.MethodGet, "/v1/branches", "old", "").Code; got != http.StatusUnauthorized {
		t.Errorf("old token after swap: %d", got)
	}
	if got := do(t, server, http.MethodGet, "/v1/branches", "new", "").Code; got != http.StatusOK {
		t.Errorf("new token after swap: %d", got)
	}
}

func TestListBranchesReturnsSeededRows(t *testing.T) {
	transport := newFakeTransport()
	branch := entity.Branch{ID: "b1", Name: "Centro", Manager: "maria", Active: true, Config: entity.DefaultBranchConfig()}
	transport.seed(entity.BranchSchema.Sheet.Name, branch.Cells())
	server := newTestServer(transport, ServerConfig{})

	recorder := do(t, server, http.MethodGet, "/v1/branches", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body)
	}
	var payload struct {
		Branches []entity.Branch `json:"branches"`
		Total    int             `json:"total"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Total != 1 || payload.Branches[0].ID != "b1" {
		t.Fatalf("payload: %+v", payload)
	}
}

func TestCreateTaskRoundTripsThroughSheet(t *testing.T) {
	transport := newFakeTransport()
	server := newTestServer(transport, ServerConfig{})

	recorder := do(t, server, http.MethodPost, "/v1/tasks", "",
		`{"userId": "bob", "title": "Restock", "assignedTo": "alice", "priority": "high"}`)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("status: %d body: %s", recorder.Code, recorder.Body)
	}
	var created entity.Task
	if err := json.Unmarshal(recorder.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Status != entity.StatusPending {
		t.Fatalf("created: %+v", created)
	}

	get := do(t, server, http.MethodGet, "/v1/tasks/"+created.ID, "", "")
	if get.Code != http.StatusOK {
		t.Fatalf("get after create: %d body: %s", get.Code, get.Body)
	}
}

func TestErrorTaxonomyMapsToStatusCodes(t *testing.T) {
	transport := newFakeTransport()
	task := entity.Task{ID: "t1", Title: "a", AssignedTo: "x", Status: entity.StatusDone, Priority: entity.PriorityNormal}
	transport.seed(entity.TaskSchema.Sheet.Name, task.Cells())
	server := newTestServer(transport, ServerConfig{})

	// Not found -> 404.
	recorder := do(t, server, http.MethodGet, "/v1/tasks/missing", "", "")
	if recorder.Code != http.StatusNotFound {
		t.Errorf("not found: %d", recorder.Code)
	}
	var payload map[string]string
	_ = json.Unmarshal(recorder.Body.Bytes(), &payload)
	if payload["error"] == "" {
		t.Errorf("flattened error string missing: %s", recorder.Body)
	}

	// Illegal transition -> 400.
	recorder = do(t, server, http.MethodPost, "/v1/tasks/t1/status", "", `{"status": "in_progress"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("illegal transition: %d", recorder.Code)
	}

	// Unknown status token -> 400, not a coerced transition to pending.
	recorder = do(t, server, http.MethodPost, "/v1/tasks/t1/status", "", `{"status": "bogus"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("unknown status token: %d", recorder.Code)
	}

	// Transport failure -> 502.
	transport.failWith = apperr.External("backend offline")
	recorder = do(t, server, http.MethodGet, "/v1/tasks", "", "")
	if recorder.Code != http.StatusBadGateway {
		t.Errorf("external failure: %d", recorder.Code)
	}
}

func TestMalformedBodyAndUnknownRoutes(t *testing.T) {
	server := newTestServer(newFakeTransport(), ServerConfig{})

	if got := do(t, server, http.MethodPost, "/v1/tasks", "", "{not json").Code; got != http.StatusBadRequest {
		t.Errorf("malformed body: %d", got)
	}
	if got := do(t, server, http.MethodGet, "/v1/unknown", "", "").Code; got != http.StatusNotFound {
		t.Errorf("unknown route: %d", got)
	}
	if got := do(t, server, http.MethodGet, "/v2/tasks", "", "").Code; got != http.StatusNotFound {
		t.Errorf("unknown version: %d", got)
	}
	if got := do(t, server, http.MethodPut, "/v1/tasks", "", "{}").Code; got != http.StatusNotFound {
		t.Errorf("unsupported method: %d", got)
	}
}

func TestSelectionLifecycleOverHTTP(t *testing.T) {
	transport := newFakeTransport()
	branch := entity.Branch{ID: "b1", Name: "Centro", Manager: "maria", Active: true, Config: entity.DefaultBranchConfig()}
	transport.seed(entity.BranchSchema.Sheet.Name, branch.Cells())
	server := newTestServer(transport, ServerConfig{})

	if got := do(t, server, http.MethodGet, "/v1/selection?user_id=alice", "", "").Code; got != http.StatusNotFound {
		t.Fatalf("selection before select: %d", got)
	}
	if got := do(t, server, http.MethodPost, "/v1/branches/select", "", `{"userId": "alice", "branchId": "b1"}`).Code; got != http.StatusOK {
		t.Fatalf("select: %d", got)
	}
	recorder := do(t, server, http.MethodGet, "/v1/selection?user_id=alice", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("selection after select: %d", recorder.Code)
	}
	var selection entity.Selection
	_ = json.Unmarshal(recorder.Body.Bytes(), &selection)
	if selection.BranchID != "b1" {
		t.Fatalf("selection: %+v", selection)
	}
	if got := do(t, server, http.MethodDelete, "/v1/selection?user_id=alice", "", "").Code; got != http.StatusOK {
		t.Fatalf("clear: %d", got)
	}
	if got := do(t, server, http.MethodGet, "/v1/selection?user_id=alice", "", "").Code; got != http.StatusNotFound {
		t.Fatalf("selection after clear: %d", got)
	}
}

func TestWorkloadScheduleAndTimeTrackingRoutes(t *testing.T) {
	transport := newFakeTransport()
	server := newTestServer(transport, ServerConfig{})

	put := do(t, server, http.MethodPut, "/v1/workload/schedule", "",
		`{"userId": "alice", "branchId": "b1", "weekday": 1, "startTime": "09:00", "endTime": "18:00", "active": true}`)
	if put.Code != http.StatusOK {
		t.Fatalf("schedule put: %d body: %s", put.Code, put.Body)
	}

	recorder := do(t, server, http.MethodGet, "/v1/workload?user_id=alice", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("workload get: %d", recorder.Code)
	}
	var workload service.Workload
	_ = json.Unmarshal(recorder.Body.Bytes(), &workload)
	if workload.WeeklyHours != 9 {
		t.Fatalf("weekly hours: %+v", workload)
	}

	logged := do(t, server, http.MethodPost, "/v1/timetracking", "",
		`{"userId": "alice", "branchId": "b1", "date": "2026-08-20", "hours": 7.5}`)
	if logged.Code != http.StatusCreated {
		t.Fatalf("log time: %d body: %s", logged.Code, logged.Body)
	}
	if got := len(transport.grids[entity.TimeTrackingSchema.Sheet.Name]); got != 1 {
		t.Fatalf("time entry rows: %d", got)
	}
}

func TestMetricsReportRoute(t *testing.T) {
	transport := newFakeTransport()
	entry := entity.TimeEntry{UserID: "alice", BranchID: "b1", Date: "2026-08-18", Hours: 8}
	transport.seed(entity.TimeTrackingSchema.Sheet.Name, entry.Cells())
	server := newTestServer(transport, ServerConfig{})

	recorder := do(t, server, http.MethodGet, "/v1/metrics/report?start=2026-08-14&end=2026-08-20", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("report: %d body: %s", recorder.Code, recorder.Body)
	}
	var report service.MetricsReport
	if err := json.Unmarshal(recorder.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Summary.TotalHours != 8 {
		t.Fatalf("summary: %+v", report.Summary)
	}
	if got := do(t, server, http.MethodGet, "/v1/metrics/report?start=bogus", "", "").Code; got != http.StatusBadRequest {
		t.Errorf("bad range: %d", got)
	}
}
