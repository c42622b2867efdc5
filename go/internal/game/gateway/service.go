package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/mcdev12/trivianight/go/internal/game/session"
	"github.com/rs/zerolog/log"
)

// Service ties the socket transport to the event router.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	router            *Router
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	HandlerTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		HandlerTimeout:   time.Minute,
	}
}

// NewService wires a router over cm. The session manager must already use cm
// as its broadcaster.
func NewService(config Config, cm *ConnectionManager, sessions *session.Manager) *Service {
	router := NewRouter(sessions, cm, config.HandlerTimeout)
	cm.SetHandler(router)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		router:            router,
	}
}

// Start delivers outbound events until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting trivia gateway service")
	s.connectionManager.Start(ctx)
	log.Info().Msg("trivia gateway service stopped")
	return nil
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// Router exposes the event router, used by admin tooling to terminate sessions.
func (s *Service) Router() *Router { return s.router }

func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "trivia_gateway"
	return stats
}
