package entity

import "github.com/sheetdesk/sheetdesk/internal/rowstore"

type NotificationPriority string

const (
	NotificationLow    NotificationPriority = "low"
	NotificationNormal NotificationPriority = "normal"
	NotificationHigh   NotificationPriority = "high"
	NotificationUrgent NotificationPriority = "urgent"
)

// ParseNotificationPriority falls back to normal on unrecognized text.
func ParseNotificationPriority(s string) NotificationPriority {
	switch NotificationPriority(normalizeToken(s)) {
	case NotificationLow, NotificationNormal, NotificationHigh, NotificationUrgent:
		return NotificationPriority(normalizeToken(s))
	default:
		return NotificationNormal
	}
}

type Notification struct {
	UserID      string               `json:"userId"`
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Type        string               `json:"type"`
	Priority    NotificationPriority `json:"priority"`
	Read        bool                 `json:"read"`
	ActionURL   string               `json:"actionUrl,omitempty"`
	ActionLabel string               `json:"actionLabel,omitempty"`
	ExpiresAt   string               `json:"expiresAt,omitempty"`
	CreatedAt   string               `json:"createdAt,omitempty"`
	ReadAt      string               `json:"readAt,omitempty"`
}

// Notifications column layout, 0-indexed. The sheet is keyed by user first so
// a human scanning the spreadsheet sees one user's rows grouped together; the
// entity key for targeted writes is the notification id in column B.
const (
	notifColUserID = iota
	notifColID
	notifColTitle
	notifColMessage
	notifColType
	notifColPriority
	notifColRead
	notifColActionURL
	notifColActionLabel
	notifColExpiresAt
	notifColCreatedAt
	notifColReadAt
	notifColumns
)

var NotificationSchema = Schema{
	Sheet:      rowstore.Sheet{Name: "Notifications", Columns: notifColumns},
	MinColumns: 7,
	KeyColumn:  notifColID,
}

// NotificationUserColumn is the filter column for per-user listing.
const NotificationUserColumn = notifColUserID

func NotificationFromRow(row rowstore.Row) (Notification, error) {
	if err := NotificationSchema.Check(row); err != nil {
		return Notification{}, err
	}
	r := ReadRow(row)
	return Notification{
		UserID:      r.String(notifColUserID),
		ID:          r.String(notifColID),
		Title:       r.String(notifColTitle),
		Message:     r.String(notifColMessage),
		Type:        r.String(notifColType),
		Priority:    ParseNotificationPriority(r.String(notifColPriority)),
		Read:        r.Bool(notifColRead),
		ActionURL:   r.String(notifColActionURL),
		ActionLabel: r.String(notifColActionLabel),
		ExpiresAt:   r.String(notifColExpiresAt),
		CreatedAt:   r.String(notifColCreatedAt),
		ReadAt:      r.String(notifColReadAt),
	}, nil
}

func (n Notification) Cells() []string {
	return WriteRow(notifColumns).
		SetString(notifColUserID, n.UserID).
		SetString(notifColID, n.ID).
		SetString(notifColTitle, n.Title).
		SetString(notifColMessage, n.Message).
		SetString(notifColType, n.Type).
		SetString(notifColPriority, string(n.Priority)).
		SetBool(notifColRead, n.Read).
		SetString(notifColActionURL, n.ActionURL).
		SetString(notifColActionLabel, n.ActionLabel).
		SetString(notifColExpiresAt, n.ExpiresAt).
		SetString(notifColCreatedAt, n.CreatedAt).
		SetString(notifColReadAt, n.ReadAt).
		Cells()
}
