package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"connectrpc.com/connect"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/trivianight/go/internal/game/events"
	"github.com/mcdev12/trivianight/go/internal/game/session"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type nopBroadcaster struct{}

func (nopBroadcaster) Send(string, *events.Event) {}

type fakeTerminator struct {
	mgr *session.Manager

	mu      sync.Mutex
	reasons map[string]string
}

func (f *fakeTerminator) TerminateSession(name, _, reason string) int {
	f.mu.Lock()
	f.reasons[name] = reason
	f.mu.Unlock()
	f.mgr.Delete(name)
	return 0
}

func newTestServer(t *testing.T) (*httptest.Server, *session.Manager, *fakeTerminator) {
	t.Helper()
	mgr := session.NewManager(session.DefaultConfig(), session.Deps{
		Broadcaster: nopBroadcaster{},
		Clock:       clockwork.NewFakeClock(),
	})
	t.Cleanup(mgr.Shutdown)

	term := &fakeTerminator{mgr: mgr, reasons: make(map[string]string)}
	mux := http.NewServeMux()
	NewService(mgr, term).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mgr, term
}

func TestListSessions_ReturnsSummaries(t *testing.T) {
	srv, mgr, _ := newTestServer(t)
	if _, err := mgr.Create("KADOMI", "conn-1", "client-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	client := connect.NewClient[emptypb.Empty, structpb.Struct](srv.Client(), srv.URL+ListSessionsProcedure)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	list := resp.Msg.GetFields()["sessions"].GetListValue().GetValues()
	if len(list) != 1 {
		t.Fatalf("sessions = %d, want 1", len(list))
	}
	fields := list[0].GetStructValue().GetFields()
	if fields["name"].GetStringValue() != "KADOMI" || fields["state"].GetStringValue() != "LOBBY" {
		t.Fatalf("summary = %v", fields)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	client := connect.NewClient[wrapperspb.StringValue, structpb.Struct](srv.Client(), srv.URL+GetSessionProcedure)
	_, err := client.CallUnary(context.Background(), connect.NewRequest(wrapperspb.String("NOPE")))
	var cerr *connect.Error
	if !errors.As(err, &cerr) || cerr.Code() != connect.CodeNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestDeleteSession_Terminates(t *testing.T) {
	srv, mgr, term := newTestServer(t)
	if _, err := mgr.Create("RUSEVA", "conn-1", "client-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	client := connect.NewClient[wrapperspb.StringValue, wrapperspb.BoolValue](srv.Client(), srv.URL+DeleteSessionProcedure)
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(wrapperspb.String("RUSEVA")))
	if err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if !resp.Msg.GetValue() {
		t.Fatalf("DeleteSession returned false")
	}
	if _, ok := mgr.Get("RUSEVA"); ok {
		t.Fatalf("session still registered")
	}
	if term.reasons["RUSEVA"] != deleteReason {
		t.Fatalf("reason = %q", term.reasons["RUSEVA"])
	}

	if _, err := client.CallUnary(context.Background(), connect.NewRequest(wrapperspb.String("RUSEVA"))); connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("second delete err = %v", err)
	}
}
