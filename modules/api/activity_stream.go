package api

import (
	"context"
	"log"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/modules/notification"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultActivityPollInterval = 2 * time.Second
	activityFetchTimeout        = 5 * time.Second
)

// upgradeOnly lets WebSocket handshakes through and answers 426 to anything else.
func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ActivityStream pushes new activity feed entries to an admin dashboard.
// The first message batch is the latest snapshot; after that only entries
// the client has not seen are written, oldest first.
func (h *Handlers) ActivityStream(conn *websocket.Conn) {
	defer conn.Close()

	// The client never sends anything useful; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[api] Activity stream read error: %v", err)
				}
				return
			}
		}
	}()

	interval := h.cfg.ActivityPollInterval
	if interval <= 0 {
		interval = defaultActivityPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastID := ""
	for {
		ctx, cancel := context.WithTimeout(context.Background(), activityFetchTimeout)
		entries, err := h.ports.Activity.ListActivity(ctx, maxActivityLimit)
		cancel()

		if err != nil {
			log.Printf("[api] Warning: activity stream fetch failed: %v", err)
		} else if fresh := unseenActivity(entries, lastID, defaultActivityLimit); len(fresh) > 0 {
			if err := conn.WriteJSON(fiber.Map{"activity": toActivityDTOs(fresh)}); err != nil {
				return
			}
			lastID = fresh[len(fresh)-1].ID
		}

		select {
		case <-closed:
			return
		case <-ticker.C:
		}
	}
}

// unseenActivity returns the entries newer than lastID, oldest first.
// entries is newest first, as the feed returns it. With no lastID, or when
// lastID has already rotated out of the feed, at most snapshot entries are returned.
func unseenActivity(entries []notification.Entry, lastID string, snapshot int) []notification.Entry {
	cut := len(entries)
	found := false
	if lastID != "" {
		for i, e := range entries {
			if e.ID == lastID {
				cut, found = i, true
				break
			}
		}
	}
	if !found && cut > snapshot {
		cut = snapshot
	}

	out := make([]notification.Entry, 0, cut)
	for i := cut - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out
}
