package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/game/session"
)

func TestService_WebSocketConnectCreatesSession(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	mgr := session.NewManager(session.DefaultConfig(), session.Deps{
		Broadcaster: cm,
		Generator:   staticGenerator{},
		Clock:       clockwork.NewFakeClock(),
	}, session.WithNameFunc(func() string { return "FUDIMO" }))
	t.Cleanup(mgr.Shutdown)

	svc := NewService(DefaultConfig(), cm, mgr)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	connect := events.New(events.EventTypeConnect, events.ConnectPayload{Role: events.RoleHost, ClientID: "display-1"})
	if err := ws.WriteJSON(connect); err != nil {
		t.Fatalf("write: %v", err)
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var joined *events.Event
	for joined == nil {
		var ev events.Event
		if err := ws.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		if ev.Type == events.EventTypeSessionJoined {
			joined = &ev
		}
	}

	var p events.SessionJoinedPayload
	if err := joined.DecodePayload(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.SessionName != "FUDIMO" || !p.Creator || p.Role != events.RoleHost {
		t.Fatalf("joined payload = %+v", p)
	}
	if joined.Session != "FUDIMO" {
		t.Fatalf("envelope session = %q", joined.Session)
	}

	ws.Close()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := mgr.Get("FUDIMO"); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session survived the creator's socket closing")
}
