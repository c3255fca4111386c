// Package server exposes the attribution workflow over HTTP for aicost
// serve. Each browser holds a session cookie; SSO tokens and role
// credentials stay in the injected session.Store.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/engine"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/sso"
	"github.com/pankaj-dahiya-devops/aicost/internal/session"
)

// CookieName holds the session ID.
const CookieName = "aicost_session"

// Broker is the part of sso.Broker the server drives.
type Broker interface {
	StartLogin(ctx context.Context, startURL string) (*models.DeviceAuthorization, error)
	AwaitToken(ctx context.Context, auth *models.DeviceAuthorization) (*models.SSOToken, error)
	ListAccounts(ctx context.Context, token *models.SSOToken) ([]models.Account, error)
	Credentials(ctx context.Context, token *models.SSOToken, accounts []models.Account, role string) ([]models.SessionCredential, []sso.AccountError)
}

// BrokerFactory returns a Broker for the SSO region of a session.
type BrokerFactory func(ctx context.Context, region string) (Broker, error)

// SessionBuilder turns role credentials into account sessions.
type SessionBuilder interface {
	SessionFromCredential(cred models.SessionCredential, region string) *common.AccountSession
}

// Options wires a Server.
type Options struct {
	Store    session.Store
	Brokers  BrokerFactory
	Engine   engine.Engine
	Sessions SessionBuilder

	// Catalog resolves requested services; keys it does not enable are
	// rejected with 400.
	Catalog *config.Catalog

	// Region is the resource region of account sessions. Empty means the
	// session's SSO region.
	Region string

	// DefaultRole is used when a selection request names no role. Empty
	// means the first role of each account.
	DefaultRole string

	// DefaultStartURL prefills /api/auth/configure requests without one.
	DefaultStartURL string

	Logger zerolog.Logger
}

// Server is the echo application behind aicost serve.
type Server struct {
	echo *echo.Echo
	opts Options
	now  func() time.Time
}

// New builds the server and registers its routes.
func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}

	s := &Server{echo: e, opts: opts, now: time.Now}
	e.Use(s.requestLogger)

	e.GET("/healthz", s.healthz)

	api := e.Group("/api")
	api.POST("/auth/configure", s.configure)

	authed := api.Group("", s.requireSession)
	authed.POST("/auth/start", s.startAuth)
	authed.POST("/auth/complete", s.completeAuth)
	authed.GET("/auth/status", s.authStatus)
	authed.GET("/accounts", s.accounts)
	authed.POST("/accounts/select", s.selectAccounts)
	authed.POST("/discover", s.discover)
	authed.POST("/costs", s.costs)
	authed.GET("/export/:format", s.export)
	authed.GET("/optimize", s.optimize)

	return s
}

// Handler returns the HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown. A clean shutdown returns nil.
func (s *Server) Start(addr string) error {
	s.opts.Logger.Info().Str("addr", addr).Msg("http server listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ExpireSessions removes idle sessions every interval until ctx is done.
func (s *Server) ExpireSessions(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.opts.Store.Expire(); n > 0 {
				s.opts.Logger.Debug().Int("expired", n).Msg("idle sessions removed")
			}
		}
	}
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := s.now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.opts.Logger.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", c.Response().Status).
			Dur("took", s.now().Sub(start)).
			Msg("request")
		return nil
	}
}

const sessionKey = "session"

// requireSession loads the cookie session or answers 401.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return fail(c, http.StatusUnauthorized, errors.New("no session; call /api/auth/configure first"))
		}
		sess, ok := s.opts.Store.Get(cookie.Value)
		if !ok {
			return fail(c, http.StatusUnauthorized, errors.New("session expired or unknown"))
		}
		c.Set(sessionKey, sess)
		return next(c)
	}
}

func current(c echo.Context) session.Session {
	sess, _ := c.Get(sessionKey).(session.Session)
	return sess
}

type errorBody struct {
	Error string `json:"error"`
}

func fail(c echo.Context, code int, err error) error {
	return c.JSON(code, errorBody{Error: err.Error()})
}
