package handlers

import (
	"net/http"
	"time"

	"codeplay/internal/agents"
	"codeplay/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	progressBuffer = 32
	writeWait      = 10 * time.Second
)

type progressSnapshot struct {
	Status        models.BuildStatus    `json:"status"`
	Progress      int                   `json:"progress"`
	IsPublished   bool                  `json:"is_published"`
	AgentMessages []models.AgentMessage `json:"agent_messages"`
}

func snapshotOf(p *models.Project) progressSnapshot {
	msgs := p.AgentMessages
	if msgs == nil {
		msgs = []models.AgentMessage{}
	}
	return progressSnapshot{
		Status:        p.AIAgentsStatus,
		Progress:      p.AIAgentsProgress,
		IsPublished:   p.IsPublished,
		AgentMessages: msgs,
	}
}

// GetProgress returns the persisted build state
// GET /api/v1/projects/:id/progress
func (h *Handler) GetProgress(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snapshotOf(p))
}

// StreamProgress upgrades to a websocket, sends the persisted snapshot and
// then forwards live pipeline events until the build ends or the client
// disconnects. When no run is in flight the socket closes after the snapshot.
// GET /api/v1/projects/:id/progress/ws
func (h *Handler) StreamProgress(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}

	// Subscribe before upgrading so nothing published in between is lost
	events, cancel := h.Hub.Subscribe(p.ID, progressBuffer)
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("progress upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(snapshotOf(p)); err != nil {
		return
	}
	// Without a live run no further events will come; forward whatever was
	// published since subscribing and close.
	if p.AIAgentsStatus == models.StatusCompleted || !h.Hub.Active(p.ID) {
		drain(conn, events)
		closeNormal(conn)
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case ev, open := <-events:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
			if finished(ev) {
				closeNormal(conn)
				return
			}
		}
	}
}

func drain(conn *websocket.Conn, events <-chan agents.ProgressEvent) {
	for {
		select {
		case ev, open := <-events:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil || finished(ev) {
				return
			}
		default:
			return
		}
	}
}

func finished(ev agents.ProgressEvent) bool {
	return ev.Done || ev.Error != ""
}

func closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
