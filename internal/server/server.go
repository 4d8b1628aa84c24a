// Package server assembles the HTTP API: the gin engine, its routes and
// middleware, and the listen/shutdown lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/tripsplit/tripsplitd/internal/auth"
	"github.com/tripsplit/tripsplitd/internal/config"
	"github.com/tripsplit/tripsplitd/internal/core/receipt"
	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// Server is the HTTP front of tripsplitd.
type Server struct {
	cfg   *config.Config
	store relationaldb.RepositoryManager
	http  *http.Server
}

// New builds the engine and binds every route. The store must already be
// open.
func New(cfg *config.Config, store relationaldb.RepositoryManager) (*Server, error) {
	gin.SetMode(cfg.Server.Mode)

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	proxies := cfg.Server.TrustedProxies
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := engine.SetTrustedProxies(proxies); err != nil {
		return nil, fmt.Errorf("invalid trusted_proxies: %w", err)
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var parserOpts []receipt.Option
	if cfg.Receipt.VerifierEnabled {
		parserOpts = append(parserOpts, receipt.WithVerifier(receipt.NewHTTPVerifier(
			cfg.Receipt.VerifierEndpoint,
			cfg.Receipt.VerifierAPIKey,
			cfg.Receipt.VerifierTimeout,
		)))
	}
	parser := receipt.NewParser(parserOpts...)

	registerRoutes(engine, store, issuer, parser, cfg.Auth.BcryptCost)

	return &Server{
		cfg:   cfg,
		store: store,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}, nil
}

// Run serves until the context is canceled, then drains in-flight requests
// within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
