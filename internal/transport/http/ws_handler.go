package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service      *app.QuizService
	upgrader     websocket.Upgrader
	advanceDelay time.Duration
	logger       *zap.Logger
}

func NewWSHandler(service *app.QuizService, advanceDelay time.Duration, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service:      service,
		advanceDelay: advanceDelay,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type guessPayload struct {
	Name       string `json:"name"`
	Generation uint64 `json:"generation"`
}

type advancePayload struct {
	Generation uint64 `json:"generation"`
}

type preferencesPayload struct {
	Preferences          domain.Preferences `json:"preferences"`
	DefaultRegionApplied bool               `json:"defaultRegionApplied"`
}

type joinedPayload struct {
	PlayerID    string             `json:"playerId"`
	Preferences domain.Preferences `json:"preferences"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and plays the presentation layer
// of one player's quiz: it renders snapshots, forwards guesses and schedules the
// delayed move to the next flag after a correct answer.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	log := h.logger.With(zap.String("player", playerID))

	if _, err := h.service.Start(ctx, playerID); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	prefs, err := h.service.Preferences(ctx, playerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(ctx, playerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer func() {
		cancel()
		h.service.Leave(context.Background(), playerID)
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "question", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	var (
		timerMu sync.Mutex
		pending *time.Timer
	)
	scheduleAdvance := func(generation uint64) {
		timerMu.Lock()
		defer timerMu.Unlock()
		if pending != nil {
			pending.Stop()
		}
		pending = time.AfterFunc(h.advanceDelay, func() {
			_, err := h.service.Advance(context.Background(), playerID, generation)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrStaleSession), errors.Is(err, domain.ErrNotAnswered),
				errors.Is(err, domain.ErrSessionNotFound):
				log.Debug("dropping delayed advance", zap.Uint64("generation", generation), zap.Error(err))
			default:
				log.Warn("delayed advance failed", zap.Error(err))
			}
		})
	}

	push(outboundMessage[any]{Type: "joined", Payload: joinedPayload{PlayerID: playerID, Preferences: prefs}})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "guess":
			var payload guessPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errorMessage("invalid guess payload"))
				continue
			}
			result, err := h.service.Guess(ctx, playerID, payload.Generation, payload.Name)
			if err != nil {
				push(errorMessage(err.Error()))
				continue
			}
			push(outboundMessage[any]{Type: "guessResult", Payload: result})
			if result.Correct && !result.Complete {
				scheduleAdvance(result.Generation)
			}
		case "next":
			var payload advancePayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					push(errorMessage("invalid next payload"))
					continue
				}
			}
			if _, err := h.service.Advance(ctx, playerID, payload.Generation); err != nil {
				push(errorMessage(err.Error()))
			}
		case "preferences":
			var payload domain.Preferences
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errorMessage("invalid preferences payload"))
				continue
			}
			updated, substituted, err := h.service.UpdatePreferences(ctx, playerID, payload)
			if err != nil {
				push(errorMessage(err.Error()))
				continue
			}
			push(outboundMessage[any]{Type: "preferences", Payload: preferencesPayload{
				Preferences:          updated,
				DefaultRegionApplied: substituted,
			}})
		case "reset":
			if _, err := h.service.Start(ctx, playerID); err != nil {
				push(errorMessage(err.Error()))
			}
		default:
			push(errorMessage("unsupported message type"))
		}
	}

	timerMu.Lock()
	if pending != nil {
		pending.Stop()
	}
	timerMu.Unlock()

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
