package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/kitchen"
)

// LoginObserver is told about every login attempt.
type LoginObserver interface {
	ObserveLogin(ok bool)
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	kitchen  *kitchen.Service
	sessions *auth.SessionManager
	observer LoginObserver
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service. observer may be nil.
func NewAuthService(svc *kitchen.Service, sessions *auth.SessionManager, observer LoginObserver, logger *slog.Logger) *AuthService {
	return &AuthService{
		kitchen:  svc,
		sessions: sessions,
		observer: observer,
		logger:   logger,
	}
}

// Login authenticates a member and returns a session token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	s.logger.Info("Login request", "name", req.Msg.Name)

	// Validate input
	if req.Msg.Name == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.kitchen.Login(ctx, req.Msg.Name, req.Msg.Password)
	if err != nil && !errors.Is(err, kitchen.ErrAuthentication) {
		return nil, toConnectError(err)
	}
	if s.observer != nil {
		s.observer.ObserveLogin(err == nil)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, kitchen.ErrAuthentication)
	}

	token, err := s.sessions.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	response := &LoginResponse{
		User:      userFromModel(user),
		Token:     token,
		ExpiresAt: time.Now().Add(s.sessions.TTL()).Unix(),
	}
	return connect.NewResponse(response), nil
}
