package admin

import (
	"context"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/trivianight/go/internal/game/session"
	"github.com/mcdev12/trivianight/go/internal/models"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "trivia.admin.v1.AdminService"

	ListSessionsProcedure  = "/" + ServiceName + "/ListSessions"
	GetSessionProcedure    = "/" + ServiceName + "/GetSession"
	DeleteSessionProcedure = "/" + ServiceName + "/DeleteSession"

	deleteReason = "This game was closed by an administrator."
)

// Registry is what the admin service needs from the session manager.
type Registry interface {
	List() []*session.Session
	Get(name string) (*session.Session, bool)
}

// Terminator tears a session down and notifies its connections.
type Terminator interface {
	TerminateSession(name, exceptConn, reason string) int
}

// Service exposes read and delete operations over live sessions.
type Service struct {
	sessions   Registry
	terminator Terminator
}

func NewService(sessions Registry, terminator Terminator) *Service {
	return &Service{sessions: sessions, terminator: terminator}
}

// RegisterRoutes mounts the admin procedures on mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux, opts ...connect.HandlerOption) {
	mux.Handle(ListSessionsProcedure, connect.NewUnaryHandler(ListSessionsProcedure, s.ListSessions, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, s.GetSession, opts...))
	mux.Handle(DeleteSessionProcedure, connect.NewUnaryHandler(DeleteSessionProcedure, s.DeleteSession, opts...))
}

// ListSessions returns {"sessions": [...]} with one summary per live session.
func (s *Service) ListSessions(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	var list []interface{}
	for _, sess := range s.sessions.List() {
		summary, err := sess.Snapshot(ctx)
		if err != nil {
			// Closed between List and Snapshot.
			continue
		}
		list = append(list, summaryToMap(summary))
	}

	out, err := structpb.NewStruct(map[string]interface{}{"sessions": list})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// GetSession returns the summary of one session by name.
func (s *Service) GetSession(ctx context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[structpb.Struct], error) {
	name := req.Msg.GetValue()
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session name is required"))
	}
	sess, ok := s.sessions.Get(name)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %s not found", name))
	}
	summary, err := sess.Snapshot(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}

	out, err := structpb.NewStruct(summaryToMap(summary))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

// DeleteSession terminates a session the same way a departing creator does.
func (s *Service) DeleteSession(_ context.Context, req *connect.Request[wrapperspb.StringValue]) (*connect.Response[wrapperspb.BoolValue], error) {
	name := req.Msg.GetValue()
	if _, ok := s.sessions.Get(name); !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %s not found", name))
	}
	notified := s.terminator.TerminateSession(name, "", deleteReason)
	log.Info().Str("session", name).Int("notified", notified).Msg("session deleted by admin")
	return connect.NewResponse(wrapperspb.Bool(true)), nil
}

func summaryToMap(s models.SessionSummary) map[string]interface{} {
	timers := make([]interface{}, 0, len(s.ActiveTimers))
	for _, k := range s.ActiveTimers {
		timers = append(timers, k)
	}
	return map[string]interface{}{
		"name":            s.Name,
		"state":           string(s.State),
		"preset":          string(s.Preset),
		"voice_type":      string(s.VoiceType),
		"creator_conn_id": s.CreatorConnID,
		"hosts":           s.Hosts,
		"players":         s.Players,
		"active_timers":   timers,
	}
}
