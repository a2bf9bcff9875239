package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/sheetdesk/sheetdesk/internal/service"
)

// streamEvent is one websocket frame pushed to the tray popup.
type streamEvent struct {
	UnreadCount   int `json:"unreadCount"`
	Notifications any `json:"notifications"`
}

// handleNotificationStream pushes the user's unread notifications over a
// websocket, re-scanning the sheet every poll interval. A frame goes out
// immediately on connect and then only when the unread set changes, so an
// idle tray costs one read per interval and no writes.
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ctx := r.Context()
	unread := false
	filter := service.NotificationFilter{Read: &unread}

	var lastSignature string
	push := func() error {
		list, err := s.svc.Notifications.List(ctx, userID, filter)
		if err != nil {
			// Transient backing-store failures must not kill the stream;
			// the next tick retries.
			log.Printf("notification stream for %s: %v", userID, err)
			return nil
		}
		signature := signatureOf(list)
		if signature == lastSignature {
			return nil
		}
		lastSignature = signature
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return wsjson.Write(writeCtx, conn, streamEvent{
			UnreadCount:   list.UnreadCount,
			Notifications: list.Notifications,
		})
	}

	if err := push(); err != nil {
		return
	}
	ticker := time.NewTicker(s.config().NotifyPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
			if err := push(); err != nil {
				return
			}
		}
	}
}

// signatureOf captures identity of the unread set: ids in order. Two lists
// with the same ids need no new frame.
func signatureOf(list service.NotificationList) string {
	signature := ""
	for _, n := range list.Notifications {
		signature += n.ID + "|"
	}
	return signature
}
