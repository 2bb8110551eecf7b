package http

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketGuessFlow(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?playerId=p1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// joined and the first question may arrive in either order.
	var first domain.Snapshot
	joined := false
	for i := 0; i < 2; i++ {
		typ, payload := readNext(t, conn)
		switch typ {
		case "joined":
			joined = true
		case "question":
			if err := json.Unmarshal(payload, &first); err != nil {
				t.Fatalf("decode question: %v", err)
			}
		default:
			t.Fatalf("unexpected message %s", typ)
		}
	}
	if !joined || first.QuestionNumber != 1 {
		t.Fatalf("expected joined and question 1, got joined=%v question=%d", joined, first.QuestionNumber)
	}
	if len(first.Choices) != 2 {
		t.Fatalf("expected 2 rows of choices, got %v", first.Choices)
	}

	guess := map[string]any{
		"type": "guess",
		"payload": map[string]any{
			"name":       first.FlagID.DisplayName(),
			"generation": first.Generation,
		},
	}
	if err := conn.WriteJSON(guess); err != nil {
		t.Fatalf("write guess: %v", err)
	}

	// Expect guessResult, then the next question after the advance delay.
	resultSeen := false
	var next domain.Snapshot
	for i := 0; i < 6 && next.QuestionNumber != 2; i++ {
		typ, payload := readNext(t, conn)
		switch typ {
		case "guessResult":
			var res domain.GuessResult
			if err := json.Unmarshal(payload, &res); err != nil {
				t.Fatalf("decode result: %v", err)
			}
			if !res.Correct || res.Stats.CorrectAnswers != 1 {
				t.Fatalf("expected correct guess, got %+v", res)
			}
			resultSeen = true
		case "question":
			if err := json.Unmarshal(payload, &next); err != nil {
				t.Fatalf("decode question: %v", err)
			}
		}
	}
	if !resultSeen || next.QuestionNumber != 2 {
		t.Fatalf("expected guessResult and question 2, got result=%v question=%d", resultSeen, next.QuestionNumber)
	}
}

func TestWebSocketRejectsUnknownMessage(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?playerId=p2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(t, conn)
	readNext(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "dance"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	typ, payload := readNext(t, conn)
	if typ != "error" || !strings.Contains(string(payload), "unsupported") {
		t.Fatalf("expected unsupported error, got %s %s", typ, payload)
	}
}

func TestWebSocketRequiresPlayer(t *testing.T) {
	server := httptest.NewServer(newTestRouter())
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func readNext(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

func newTestService() *app.QuizService {
	return app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewPreferenceStore(),
		memory.NewResultStore(),
		memory.NewStaticCatalog(sampleCatalog()),
		app.WithDefaults(app.Defaults{Choices: 4, Regions: []string{"Europe"}, DefaultRegion: "Europe"}),
		app.WithControllerOptions(app.WithRand(rand.New(rand.NewSource(1)))),
	)
}

func newTestRouter() http.Handler {
	service := newTestService()
	return NewRouter(NewAPI(service, nil), NewWSHandler(service, 20*time.Millisecond, nil), sampleImages())
}

func sampleCatalog() map[string][]domain.FlagID {
	return map[string][]domain.FlagID{
		"Europe": {
			"Europe-France", "Europe-Germany", "Europe-Czech_Republic", "Europe-Spain",
			"Europe-Italy", "Europe-Poland", "Europe-Norway", "Europe-Ireland",
			"Europe-Austria", "Europe-Greece", "Europe-Portugal", "Europe-Belgium",
		},
		"Oceania": {"Oceania-Fiji"},
	}
}

func sampleImages() fstest.MapFS {
	return fstest.MapFS{
		"Europe/Europe-France.png": {Data: []byte("\x89PNG")},
	}
}
