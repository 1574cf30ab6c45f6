package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-player/internal/app"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades the request and runs one player loop for the connection.
// An optional ?name= sets the player name before the first screen is shown.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log := h.log.With(zap.String("conn", connID))
	log.Info("player connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if name := r.URL.Query().Get("name"); name != "" {
		if err := h.service.Profile().SetName(ctx, name); err != nil {
			log.Warn("set player name", zap.Error(err))
		}
	}

	runner := h.service.NewRunner()
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		runner.Run(ctx)
	}()

	// Single writer: only this goroutine touches the connection for writes.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range runner.Events() {
			if err := conn.WriteJSON(outboundMessage{Type: string(ev.Type), Payload: ev.Payload}); err != nil {
				log.Warn("ws write error", zap.Error(err))
				cancel()
				return
			}
		}
	}()

	if err := runner.Send(ctx, app.Action{Type: app.ActionInit}); err != nil {
		log.Warn("init player", zap.Error(err))
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		action, ok := decodeAction(inbound)
		if !ok {
			log.Debug("ignored message", zap.String("type", inbound.Type))
			continue
		}
		if err := runner.Send(ctx, action); err != nil {
			break
		}
	}

	cancel()
	<-runDone
	<-writerDone
	log.Info("player disconnected")
}

// decodeAction maps a client message to an action. Timer actions are reserved
// for the server loop and are refused.
func decodeAction(msg inboundMessage) (app.Action, bool) {
	var action app.Action
	if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
		if err := json.Unmarshal(msg.Payload, &action); err != nil {
			return app.Action{}, false
		}
	}
	action.Type = app.ActionType(msg.Type)
	if action.Type == app.ActionTick || action.Type == "" {
		return app.Action{}, false
	}
	return action, true
}
