package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Carlos-Trindade-code/sbar-health-sub000/feed"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/middleware"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the configured frontend origin before exposing
		// the feed outside the internal network.
		return true
	},
}

type WebSocketHandler struct {
	hub    *feed.Hub
	roster services.RosterService
}

func NewWebSocketHandler(hub *feed.Hub, roster services.RosterService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		roster: roster,
	}
}

// ServeActivityFeed upgrades the connection and subscribes the caller to a
// team's live activity stream. Only members may watch.
func (h *WebSocketHandler) ServeActivityFeed(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	// Membership check doubles as the existence check for the team.
	if _, err := h.roster.ListMembers(r.Context(), teamID, actorID); err != nil {
		if errors.Is(err, services.ErrNotTeamMember) || errors.Is(err, services.ErrForbiddenOperation) {
			forbiddenResponse(w, r, err.Error())
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		slog.Warn("websocket upgrade failed", slog.Int("team_id", teamID), slog.Any("error", err))
		return
	}

	feed.NewClient(h.hub, conn, teamID).Start()
}
