// Package live maintains the per-client WebSocket update channel. A client
// declares interest in a project by sending its identifier as a text frame;
// every frame triggers exactly one activity query against the remote service
// and one push back to the client. A new frame overwrites the prior
// subscription, so a connection follows at most one project at a time.
package live

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"reelgate/internal/frameio"
	"reelgate/internal/observability/metrics"
)

const maxMessageSize = 512

// Config configures a live update Gateway.
type Config struct {
	Remote  frameio.Service
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Gateway upgrades HTTP requests to WebSocket connections and runs the
// subscribe/push loop for each of them.
type Gateway struct {
	remote   frameio.Service
	logger   *slog.Logger
	metrics  *metrics.Recorder
	upgrader websocket.Upgrader
}

// NewGateway initialises a gateway using the provided configuration.
func NewGateway(cfg Config) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Default()
	}
	return &Gateway{
		remote:  cfg.Remote,
		logger:  logger,
		metrics: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Connections carry no credentials and project IDs are
			// opaque, so any origin may subscribe.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type updateFrame struct {
	Message string           `json:"message"`
	Data    frameio.Activity `json:"data"`
}

// HandleConnection upgrades the request and serves the connection until the
// client disconnects. Disconnects are normal termination, never surfaced as
// errors.
func (g *Gateway) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		g.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	g.metrics.LiveConnectionOpened()
	defer g.metrics.LiveConnectionClosed()
	defer conn.Close()

	g.logger.Info("live channel opened", "remote_addr", conn.RemoteAddr().String())
	g.serve(r, conn)
	g.logger.Info("live channel closed", "remote_addr", conn.RemoteAddr().String())
}

// serve runs the message-driven loop: one read, one activity query, one push.
// Running everything on a single goroutine keeps pushes strictly ordered
// relative to the frames that triggered them.
func (g *Gateway) serve(r *http.Request, conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)

	var projectID string
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				g.logger.Warn("live channel read error", "remote_addr", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
		next := strings.TrimSpace(string(message))
		if next == "" {
			continue
		}
		// The frame's literal content is the subscription target; a new
		// frame replaces the previous one.
		projectID = next

		activity, err := g.remote.ProjectActivity(r.Context(), projectID)
		if err != nil {
			// Skip the push and keep the connection alive; the next
			// frame retries naturally.
			g.metrics.ObserveLiveQueryFailure()
			g.logger.Warn("project activity query failed", "project_id", projectID, "error", err)
			continue
		}
		if err := conn.WriteJSON(updateFrame{Message: "Update received", Data: activity}); err != nil {
			g.logger.Warn("live channel write failed", "project_id", projectID, "error", err)
			return
		}
		g.metrics.ObserveLivePush()
	}
}
