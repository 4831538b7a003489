package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"elearn-platform/internal/app"
	"elearn-platform/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler drives a player session over a websocket: the client streams
// playback positions in, the server streams prompts, transport controls, and
// stats back out.
type WSHandler struct {
	service      *app.PlayerService
	tickInterval time.Duration
	upgrader     websocket.Upgrader
	log          zerolog.Logger
}

func NewWSHandler(service *app.PlayerService, tickInterval time.Duration, log zerolog.Logger) *WSHandler {
	if tickInterval <= 0 {
		tickInterval = 200 * time.Millisecond
	}
	return &WSHandler{
		service:      service,
		tickInterval: tickInterval,
		log:          log,
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

type readyPayload struct {
	DurationSeconds float64 `json:"durationSeconds"`
}

type positionPayload struct {
	Seconds float64 `json:"seconds"`
}

type answerPayload struct {
	Choice string `json:"choice"`
}

type answerResult struct {
	QuestionID string `json:"questionId"`
	Choice     string `json:"choice"`
	Correct    bool   `json:"correct"`
}

type controlPayload struct {
	Action  string  `json:"action"`
	Seconds float64 `json:"seconds,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// remoteClock adapts the client-side player into an engine.Clock: position is
// the last sample the client reported, transport controls go back out as
// control messages. Controls never block; if the outbound buffer is full the
// message is dropped and the client reconciles on the next control.
type remoteClock struct {
	mu       sync.Mutex
	position float64
	send     chan outboundMessage[any]
}

func (c *remoteClock) CurrentPosition() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *remoteClock) setPosition(seconds float64) {
	c.mu.Lock()
	c.position = seconds
	c.mu.Unlock()
}

func (c *remoteClock) Pause()  { c.control(controlPayload{Action: "pause"}) }
func (c *remoteClock) Resume() { c.control(controlPayload{Action: "resume"}) }
func (c *remoteClock) Seek(seconds float64) {
	c.control(controlPayload{Action: "seek", Seconds: seconds})
}

func (c *remoteClock) control(p controlPayload) {
	select {
	case c.send <- outboundMessage[any]{Type: "control", Payload: p}:
	default:
	}
}

// ServeWS upgrades the request and wires the connection into a player session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("videoId")
	sessionID := r.URL.Query().Get("sessionId")
	if videoID == "" || sessionID == "" {
		http.Error(w, "missing videoId or sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 32)
	clock := &remoteClock{send: send}

	session, restore, err := h.service.Join(r.Context(), videoID, sessionID, clock)
	if err != nil {
		// A missing checkpoint set is a recoverable authoring gap, not a crash:
		// tell the viewer to configure questions first.
		msg := err.Error()
		if err == domain.ErrCheckpointSetNotFound {
			msg = "no questions configured for this video yet; add checkpoints before starting the quiz"
		}
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: msg}})
		return
	}
	defer h.service.Leave(context.Background(), sessionID)

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Str("session", sessionID).Msg("ws write error")
				return
			}
		}
	}()

	// Server-side tick loop: the engine polls the last reported position at a
	// fixed interval rather than reacting to every position message.
	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				prompt, fired := session.Tick(context.Background())
				if !fired {
					continue
				}
				select {
				case send <- outboundMessage[any]{Type: "prompt", Payload: prompt}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "restored", Payload: restore}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "ready":
			var payload readyPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid ready payload")
				continue
			}
			session.SetDuration(payload.DurationSeconds)
			if restore.Position > 0 {
				target := restore.Position
				if payload.DurationSeconds > 0 && target > payload.DurationSeconds {
					target = payload.DurationSeconds
				}
				clock.Seek(target)
			}
		case "position":
			var payload positionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid position payload")
				continue
			}
			clock.setPosition(payload.Seconds)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid answer payload")
				continue
			}
			rec, st, err := session.Answer(payload.Choice)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				QuestionID: rec.QuestionID,
				Choice:     rec.Choice,
				Correct:    rec.Correct,
			}}
			send <- outboundMessage[any]{Type: "stats", Payload: st}
		case "dismiss":
			session.Dismiss()
		case "reset":
			st := session.Reset()
			send <- outboundMessage[any]{Type: "stats", Payload: st}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
