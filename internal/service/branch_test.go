package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
)

func newTestBranchService(transport *fakeTransport) *BranchService {
	svc := NewBranchService(newTestStore(transport))
	svc.now = fixedClock("2026-08-20T12:00:00Z")
	return svc
}

func TestListBranchesSkipsMalformedRows(t *testing.T) {
	transport := newFakeTransport()
	transport.seedBranches(
		entity.Branch{ID: "b1", Name: "Centro", Manager: "maria", Active: true, Config: entity.DefaultBranchConfig()},
	)
	transport.seed(entity.BranchSchema.Sheet.Name, []string{"b2", "Norte"}) // below minimum width
	transport.seedBranches(
		entity.Branch{ID: "b3", Name: "Sul", Manager: "joao", Active: false, Config: entity.DefaultBranchConfig()},
	)
	svc := newTestBranchService(transport)

	branches, err := svc.ListBranches(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(branches))
	}
	if branches[0].ID != "b1" || branches[1].ID != "b3" {
		t.Fatalf("wrong branches survived: %+v", branches)
	}
}

func TestValidateBranchMapsLookupFailureToFalse(t *testing.T) {
	transport := newFakeTransport()
	transport.seedBranches(
		entity.Branch{ID: "b1", Name: "Centro", Manager: "maria", Active: true, Config: entity.DefaultBranchConfig()},
		entity.Branch{ID: "b2", Name: "Norte", Manager: "joao", Active: false, Config: entity.DefaultBranchConfig()},
	)
	svc := newTestBranchService(transport)
	ctx := context.Background()

	cases := map[string]bool{"b1": true, "b2": false, "missing": false, "": false}
	for branchID, want := range cases {
		ok, err := svc.ValidateBranch(ctx, branchID)
		if err != nil {
			t.Fatalf("validate %q: %v", branchID, err)
		}
		if ok != want {
			t.Errorf("validate %q = %v, want %v", branchID, ok, want)
		}
	}
}

func TestSelectBranchUpsertsOneRowPerUser(t *testing.T) {
	transport := newFakeTransport()
	transport.seedBranches(
		entity.Branch{ID: "b1", Name: "Centro", Manager: "maria", Active: true, Config: entity.DefaultBranchConfig()},
		entity.Branch{ID: "b2", Name: "Norte", Manager: "joao", Active: true, Config: entity.DefaultBranchConfig()},
	)
	svc := newTestBranchService(transport)
	ctx := context.Background()

	if _, err := svc.SelectBranch(ctx, "alice", "b1"); err != nil {
		t.Fatalf("first select: %v", err)
	}
	selection, err := svc.SelectBranch(ctx, "alice", "b2")
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	if selection.BranchID != "b2" || selection.SelectedAt != "2026-08-20T12:00:00Z" {
		t.Fatalf("selection: %+v", selection)
	}

	grid := transport.grids[entity.SelectionSchema.Sheet.Name]
	if len(grid) != 1 {
		t.Fatalf("reselect should update in place, got %d rows", len(grid))
	}
	got, err := svc.GetSelection(ctx, "alice")
	if err != nil {
		t.Fatalf("get selection: %v", err)
	}
	if got.BranchID != "b2" {
		t.Fatalf("latest selection did not win: %+v", got)
	}
}

func TestSelectBranchRejectsInactiveAndUnknownBranches(t *testing.T) {
	transport := newFakeTransport()
	transport.seedBranches(
		entity.Branch{ID: "b1", Name: "Centro", Manager: "maria", Active: false, Config: entity.DefaultBranchConfig()},
	)
	svc := newTestBranchService(transport)
	ctx := context.Background()

	if _, err := svc.SelectBranch(ctx, "alice", "b1"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("inactive branch: got %v, want validation error", err)
	}
	if _, err := svc.SelectBranch(ctx, "alice", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown branch: got %v, want not found", err)
	}
}

func TestClearSelectionIsIdempotent(t *testing.T) {
	transport := newFakeTransport()
	transport.seedBranches(
		entity.Branch{ID: "b1", Name: "Centro", Manager: "maria", Active: true, Config: entity.DefaultBranchConfig()},
	)
	svc := newTestBranchService(transport)
	ctx := context.Background()

	// Clearing with nothing selected is a no-op.
	if err := svc.ClearSelection(ctx, "alice"); err != nil {
		t.Fatalf("clear with no selection: %v", err)
	}

	if _, err := svc.SelectBranch(ctx, "alice", "b1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := svc.ClearSelection(ctx, "alice"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := svc.GetSelection(ctx, "alice"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("selection survived clear: %v", err)
	}
}
