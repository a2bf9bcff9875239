package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

type BranchService struct {
	store *rowstore.Store
	now   func() time.Time
}

func NewBranchService(store *rowstore.Store) *BranchService {
	return &BranchService{store: store, now: defaultNow}
}

// ListBranches returns every well-formed branch row. Rows below the minimum
// column count are skipped, not surfaced: a half-filled row in the sheet must
// not hide the rest.
func (s *BranchService) ListBranches(ctx context.Context) ([]entity.Branch, error) {
	rows, err := s.store.Scan(ctx, entity.BranchSchema.Sheet)
	if err != nil {
		return nil, err
	}
	branches := make([]entity.Branch, 0, len(rows))
	for _, row := range rows {
		branch, err := entity.BranchFromRow(row)
		if err != nil {
			continue
		}
		branches = append(branches, branch)
	}
	return branches, nil
}

func (s *BranchService) GetBranch(ctx context.Context, branchID string) (entity.Branch, error) {
	branchID = strings.TrimSpace(branchID)
	if branchID == "" {
		return entity.Branch{}, apperr.Validation("branch id is required")
	}
	row, found, err := s.store.FindByKey(ctx, entity.BranchSchema.Sheet, entity.BranchSchema.KeyColumn, branchID)
	if err != nil {
		return entity.Branch{}, err
	}
	if !found {
		return entity.Branch{}, apperr.NotFound("branch %s", branchID)
	}
	return entity.BranchFromRow(row)
}

// ValidateBranch reports whether a branch exists and is active. Lookup
// failure on the entity itself maps to false, not an error.
func (s *BranchService) ValidateBranch(ctx context.Context, branchID string) (bool, error) {
	branch, err := s.GetBranch(ctx, branchID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrValidation) {
			return false, nil
		}
		return false, err
	}
	return branch.Active, nil
}

// SelectBranch records userID's current branch with upsert semantics: one
// UserSelections row per user, latest selection wins.
func (s *BranchService) SelectBranch(ctx context.Context, userID, branchID string) (entity.Selection, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entity.Selection{}, apperr.Validation("user id is required")
	}
	branch, err := s.GetBranch(ctx, branchID)
	if err != nil {
		return entity.Selection{}, err
	}
	if !branch.Active {
		return entity.Selection{}, apperr.Validation("branch %s is not active", branchID)
	}
	selection := entity.Selection{
		UserID:     userID,
		BranchID:   branch.ID,
		SelectedAt: timestamp(s.now()),
	}
	if _, err := s.store.Upsert(ctx, entity.SelectionSchema.Sheet, entity.SelectionSchema.KeyColumn, userID, selection.Cells()); err != nil {
		return entity.Selection{}, err
	}
	return selection, nil
}

func (s *BranchService) GetSelection(ctx context.Context, userID string) (entity.Selection, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entity.Selection{}, apperr.Validation("user id is required")
	}
	row, found, err := s.store.FindByKey(ctx, entity.SelectionSchema.Sheet, entity.SelectionSchema.KeyColumn, userID)
	if err != nil {
		return entity.Selection{}, err
	}
	if !found {
		return entity.Selection{}, apperr.NotFound("no branch selected for user %s", userID)
	}
	return entity.SelectionFromRow(row)
}

// ClearSelection blanks the user's selection row. Clearing an absent
// selection is a no-op, not an error.
func (s *BranchService) ClearSelection(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperr.Validation("user id is required")
	}
	row, found, err := s.store.FindByKey(ctx, entity.SelectionSchema.Sheet, entity.SelectionSchema.KeyColumn, userID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return s.store.SoftDelete(ctx, entity.SelectionSchema.Sheet, row.Number)
}
