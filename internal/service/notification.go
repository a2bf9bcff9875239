package service

import (
	"context"
	"strings"
	"time"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
	"github.com/sheetdesk/sheetdesk/internal/entity"
	"github.com/sheetdesk/sheetdesk/internal/rowstore"
)

type NotificationService struct {
	store *rowstore.Store
	now   func() time.Time
	newID func() string
}

func NewNotificationService(store *rowstore.Store) *NotificationService {
	return &NotificationService{store: store, now: defaultNow, newID: defaultNewID}
}

// NotificationFilter narrows List in memory. Read is a tri-state: nil means
// both read and unread.
type NotificationFilter struct {
	Type     string `json:"type,omitempty"`
	Priority string `json:"priority,omitempty"`
	Read     *bool  `json:"read,omitempty"`
}

func (f NotificationFilter) matches(n entity.Notification) bool {
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.Priority != "" && string(n.Priority) != strings.ToLower(strings.TrimSpace(f.Priority)) {
		return false
	}
	if f.Read != nil && n.Read != *f.Read {
		return false
	}
	return true
}

type NotificationList struct {
	Notifications []entity.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	UnreadCount   int                   `json:"unreadCount"`
}

// List returns the user's notifications in scan order. Rows are prefiltered
// on the raw user column before parsing. Expired notifications (expires_at in
// the past) are dropped; the unread count covers only what is returned.
func (s *NotificationService) List(ctx context.Context, userID string, filter NotificationFilter) (NotificationList, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return NotificationList{}, apperr.Validation("user id is required")
	}
	rows, err := s.store.Scan(ctx, entity.NotificationSchema.Sheet)
	if err != nil {
		return NotificationList{}, err
	}
	now := s.now()
	out := NotificationList{Notifications: []entity.Notification{}}
	for _, row := range rows {
		if strings.TrimSpace(row.Cell(entity.NotificationUserColumn)) != userID {
			continue
		}
		notification, err := entity.NotificationFromRow(row)
		if err != nil || notification.ID == "" {
			continue
		}
		if expires, ok := parseTimestamp(notification.ExpiresAt); ok && expires.Before(now) {
			continue
		}
		if !filter.matches(notification) {
			continue
		}
		out.Notifications = append(out.Notifications, notification)
		if !notification.Read {
			out.UnreadCount++
		}
	}
	out.Total = len(out.Notifications)
	return out, nil
}

type CreateNotificationRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	ActionURL   string `json:"actionUrl,omitempty"`
	ActionLabel string `json:"actionLabel,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
}

func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (entity.Notification, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return entity.Notification{}, apperr.Validation("notification user id is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return entity.Notification{}, apperr.Validation("notification message is required")
	}
	if req.ExpiresAt != "" {
		if _, ok := parseTimestamp(req.ExpiresAt); !ok {
			return entity.Notification{}, apperr.Validation("expires_at %q is not RFC 3339", req.ExpiresAt)
		}
	}
	notification := entity.Notification{
		UserID:      strings.TrimSpace(req.UserID),
		ID:          s.newID(),
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		Priority:    entity.ParseNotificationPriority(req.Priority),
		ActionURL:   req.ActionURL,
		ActionLabel: req.ActionLabel,
		ExpiresAt:   req.ExpiresAt,
		CreatedAt:   timestamp(s.now()),
	}
	if _, err := s.store.Append(ctx, entity.NotificationSchema.Sheet, notification.Cells()); err != nil {
		return entity.Notification{}, err
	}
	return notification, nil
}

// MarkRead stamps the given notifications read for userID. Each id is
// re-resolved by key scan immediately before its write; ids belonging to
// another user are rejected, unknown ids are reported not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, notificationIDs []string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return apperr.Validation("user id is required")
	}
	for _, id := range notificationIDs {
		row, found, err := s.store.FindByKey(ctx, entity.NotificationSchema.Sheet, entity.NotificationSchema.KeyColumn, id)
		if err != nil {
			return err
		}
		if !found {
			return apperr.NotFound("notification %s", id)
		}
		notification, err := entity.NotificationFromRow(row)
		if err != nil {
			return err
		}
		if notification.UserID != userID {
			return apperr.Validation("notification %s does not belong to user %s", id, userID)
		}
		if notification.Read {
			continue
		}
		notification.Read = true
		notification.ReadAt = timestamp(s.now())
		if err := s.store.Update(ctx, entity.NotificationSchema.Sheet, row.Number, notification.Cells()); err != nil {
			return err
		}
	}
	return nil
}

// MarkAllRead stamps every unread notification of the user. Ids come from
// one listing pass; each write still re-resolves its row number through
// MarkRead, so a concurrent insert between listing and writing cannot
// misdirect a write.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	list, err := s.List(ctx, userID, NotificationFilter{Read: boolPtr(false)})
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(list.Notifications))
	for _, n := range list.Notifications {
		ids = append(ids, n.ID)
	}
	return s.MarkRead(ctx, userID, ids)
}

type NotificationStats struct {
	Total      int            `json:"total"`
	Unread     int            `json:"unread"`
	ByType     map[string]int `json:"byType"`
	ByPriority map[string]int `json:"byPriority"`
	Last24h    int            `json:"last24h"`
}

// Stats aggregates the user's notifications from the materialized set.
func (s *NotificationService) Stats(ctx context.Context, userID string) (NotificationStats, error) {
	list, err := s.List(ctx, userID, NotificationFilter{})
	if err != nil {
		return NotificationStats{}, err
	}
	stats := NotificationStats{
		ByType:     map[string]int{},
		ByPriority: map[string]int{},
	}
	cutoff := s.now().Add(-24 * time.Hour)
	for _, n := range list.Notifications {
		stats.Total++
		if !n.Read {
			stats.Unread++
		}
		if n.Type != "" {
			stats.ByType[n.Type]++
		}
		stats.ByPriority[string(n.Priority)]++
		if created, ok := parseTimestamp(n.CreatedAt); ok && created.After(cutoff) {
			stats.Last24h++
		}
	}
	return stats, nil
}

func boolPtr(v bool) *bool {
	return &v
}
