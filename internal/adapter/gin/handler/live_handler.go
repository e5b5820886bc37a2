package handler

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	domain "realtime-users/internal/domain/user"
	"realtime-users/internal/usecase/user"
	"realtime-users/pkg/logger"
)

// LiveSettings tunes the live websocket feed.
type LiveSettings struct {
	WriteTimeout time.Duration
	PingTimeout  time.Duration
}

// DefaultLiveSettings returns the settings used by the server.
func DefaultLiveSettings() LiveSettings {
	return LiveSettings{
		WriteTimeout: 5 * time.Second,
		PingTimeout:  30 * time.Second,
	}
}

// LiveHandler streams the users collection over a websocket: one JSON
// SnapshotResponse message per snapshot.
type LiveHandler struct {
	watcher  *user.Watcher
	upgrader websocket.Upgrader
	settings LiveSettings
	log      *zap.Logger
}

// NewLiveHandler creates a new LiveHandler instance
func NewLiveHandler(watcher *user.Watcher, settings LiveSettings, log *zap.Logger) *LiveHandler {
	return &LiveHandler{
		watcher: watcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		settings: settings,
		log:      log,
	}
}

// Live handles GET /v1/users/live
func (h *LiveHandler) Live(c *gin.Context) {
	log := logger.WithContext(c.Request.Context(), h.log)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already replied
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub, err := h.watcher.Subscribe(ctx, domain.CollectionRoot)
	if err != nil {
		h.closeWith(ws, websocket.CloseTryAgainLater, err.Error())
		return
	}
	defer sub.Close()

	// The client sends nothing; reading detects when it goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Info("live feed opened")
	defer log.Info("live feed closed")

	snapshots, errs := sub.Snapshots(), sub.Err()
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			ws.SetWriteDeadline(time.Now().Add(h.settings.WriteTimeout))
			if err := ws.WriteJSON(ToSnapshotResponse(snapshot)); err != nil {
				log.Debug("live write failed", zap.Error(err))
				return
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			h.closeWith(ws, websocket.CloseTryAgainLater, err.Error())
			return
		case <-time.After(h.settings.PingTimeout):
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.settings.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

// maxCloseReason is the room left for the reason in a 125 byte close frame
// payload after the 2 byte code.
const maxCloseReason = 123

// closeReason cuts text to fit a close frame without splitting a rune.
func closeReason(text string) string {
	if len(text) <= maxCloseReason {
		return text
	}
	end := maxCloseReason
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	return text[:end]
}

func (h *LiveHandler) closeWith(ws *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, closeReason(text))
	if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.settings.WriteTimeout)); err != nil {
		h.log.Debug("failed to send close frame", zap.Error(err))
	}
}
