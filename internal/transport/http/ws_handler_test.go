package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"elearn-platform/internal/app"
	"elearn-platform/internal/checkpoint"
	"elearn-platform/internal/engine"
	"elearn-platform/internal/infra/memory"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := memory.NewCheckpointRepository(memory.NewStaticSetLoader(map[string][]checkpoint.RawEntry{
		"video-1": {
			{ID: "q1", At: "0:05", Prompt: "Select the right option", Choices: []string{"Wrong", "Right"}, Answer: "Right"},
		},
	}), time.Minute)
	cfg := engine.Config{ProximityThreshold: 0.3, TriggerCooldown: 2 * time.Second}
	service := app.NewPlayerService(repo, memory.NewAnswerStoreFactory(), memory.NewPositionCache(), cfg, zerolog.Nop())
	wsHandler := NewWSHandler(service, 20*time.Millisecond, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketCheckpointFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "videoId=video-1&sessionId=d1")

	// Expect restored state first.
	if typ, _ := readNext(conn, t, "restored"); typ != "restored" {
		t.Fatalf("expected restored, got %s", typ)
	}

	// Report a position inside the checkpoint window; the server tick loop
	// should pause playback and surface the prompt.
	writeMessage(conn, t, "position", map[string]any{"seconds": 5.0})

	pauseSeen := false
	promptSeen := false
	for i := 0; i < 5 && !(pauseSeen && promptSeen); i++ {
		typ, payload := readNext(conn, t, "")
		switch typ {
		case "control":
			if payload["action"] == "pause" {
				pauseSeen = true
			}
		case "prompt":
			promptSeen = true
		}
	}
	if !pauseSeen || !promptSeen {
		t.Fatalf("expected pause control and prompt, got pause=%v prompt=%v", pauseSeen, promptSeen)
	}

	// Answer: expect resume control, answerResult, and refreshed stats.
	writeMessage(conn, t, "answer", map[string]any{"choice": "Right"})

	resumeSeen := false
	resultSeen := false
	statsSeen := false
	for i := 0; i < 6 && !(resumeSeen && resultSeen && statsSeen); i++ {
		typ, payload := readNext(conn, t, "")
		switch typ {
		case "control":
			if payload["action"] == "resume" {
				resumeSeen = true
			}
		case "answerResult":
			resultSeen = true
			if payload["correct"] != true {
				t.Fatalf("expected correct answer, got %+v", payload)
			}
		case "stats":
			statsSeen = true
			if payload["answered"] != float64(1) {
				t.Fatalf("expected answered=1, got %+v", payload)
			}
		}
	}
	if !resumeSeen || !resultSeen || !statsSeen {
		t.Fatalf("expected resume/answerResult/stats, got %v/%v/%v", resumeSeen, resultSeen, statsSeen)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/ws?videoId=video-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketUnknownVideoReportsError(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "videoId=missing&sessionId=d1")

	typ, payload := readNext(conn, t, "error")
	if typ != "error" || payload["message"] == "" {
		t.Fatalf("expected error message for unconfigured video, got %s %+v", typ, payload)
	}
}

func writeMessage(conn *websocket.Conn, t *testing.T, msgType string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
