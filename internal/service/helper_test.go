package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
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

func (f *fakeTransport) seedTasks(tasks ...entity.Task) {
	for _, task := range tasks {
		f.seed(entity.TaskSchema.Sheet.Name, task.Cells())
	}
}

func (f *fakeTransport) seedBranches(branches ...entity.Branch) {
	for _, branch := range branches {
		f.seed(entity.BranchSchema.Sheet.Name, branch.Cells())
	}
}

func (f *fakeTransport) seedNotifications(notifications ...entity.Notification) {
	for _, n := range notifications {
		f.seed(entity.NotificationSchema.Sheet.Name, n.Cells())
	}
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

func fixedClock(iso string) func() time.Time {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestStore(transport *fakeTransport) *rowstore.Store {
	return rowstore.New(transport)
}
