package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/diewo77/invoice-api/auth"
	"github.com/diewo77/invoice-api/internal/config"
	"github.com/diewo77/invoice-api/internal/db"
	"github.com/diewo77/invoice-api/internal/logging"
	"github.com/diewo77/invoice-api/internal/mail"
	"github.com/diewo77/invoice-api/internal/render"
	"github.com/diewo77/invoice-api/internal/server"
	"github.com/diewo77/invoice-api/internal/services"
	"github.com/diewo77/invoice-api/internal/store"
	"github.com/diewo77/invoice-api/internal/store/gormstore"
	"github.com/diewo77/invoice-api/internal/store/surrealstore"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout), nil
}

// openStore connects the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSurrealDB:
		st, err := surrealstore.Open(ctx, cfg.Surreal)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		log.Info().Str("url", cfg.Surreal.URL).Str("ns", cfg.Surreal.Namespace).Msg("surrealdb store ready")
		return st, nil
	default:
		gdb, err := db.Open(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		st := gormstore.New(gdb)
		if err := db.Migrate(gdb, cfg.Database, log); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return st, nil
	}
}

func assetSource(cfg config.RenderConfig) (render.Source, error) {
	if cfg.AssetsS3Bucket != "" {
		return render.NewS3Source(cfg.AWSRegion, cfg.AssetsS3Bucket, cfg.AssetsS3Prefix)
	}
	return render.DirSource{Dir: cfg.AssetsDir}, nil
}

// buildRenderer loads the brand assets once and picks the PDF engine.
func buildRenderer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*render.Renderer, error) {
	src, err := assetSource(cfg.Render)
	if err != nil {
		return nil, fmt.Errorf("asset source: %w", err)
	}
	assets := render.LoadAssets(ctx, src, log)

	html, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}
	pdf, err := pdfEngine(cfg.Render, html)
	if err != nil {
		return nil, err
	}
	log.Info().Str("engine", pdf.Engine()).Int("cards", len(assets.Cards)).Bool("logo", assets.Logo != nil).Msg("renderer ready")

	return render.New(html, pdf, assets, render.Options{
		Brand: render.Brand{
			Name:    cfg.Brand.Name,
			Address: cfg.Brand.Address,
			Phone:   cfg.Brand.Phone,
			ABN:     cfg.Brand.ABN,
		},
		PaymentLinkBase: cfg.Render.PaymentLinkBase,
	}), nil
}

func pdfEngine(cfg config.RenderConfig, html *render.HTMLRenderer) (render.PDFRenderer, error) {
	if cfg.Engine == config.EngineChrome {
		return render.NewChromePDFRenderer(html, cfg.Timeout, cfg.ChromePath), nil
	}
	if cfg.FontPath == "" {
		return render.NewNativePDFRenderer(), nil
	}
	ttf, err := os.ReadFile(cfg.FontPath)
	if err != nil {
		return nil, fmt.Errorf("pdf font: %w", err)
	}
	return render.NewNativePDFRendererWithFonts(render.SingleFont(ttf)), nil
}

// buildHandler wires services and handlers around st.
func buildHandler(cfg *config.Config, log zerolog.Logger, st store.Store, mailer mail.Sender, renderer *render.Renderer) http.Handler {
	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL)
	authSvc := services.NewAuthService(st, tokens, mailer, cfg.App.FrontendURL, cfg.Auth.ResetTTL, log)
	auth.SetUserVerifier(authSvc.UserExists)

	return server.New(server.Deps{
		App:      cfg.App,
		Log:      log,
		Tokens:   tokens,
		Store:    st,
		Auth:     authSvc,
		Clients:  services.NewClientService(st),
		Invoices: services.NewInvoiceService(st, log),
		Renderer: renderer,
	})
}

func serve(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	renderer, err := buildRenderer(ctx, cfg, log)
	if err != nil {
		return err
	}
	if !cfg.Mail.Enabled() {
		log.Warn().Msg("SMTP credentials missing, reset links are logged instead of mailed")
	}
	handler := buildHandler(cfg, log, st, mail.New(cfg.Mail, log), renderer)
	srv := server.NewHTTPServer(cfg.Server, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.App.Env).Str("driver", cfg.Database.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}

func migrateOnly(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	st, err := openStore(c.Context, cfg, log)
	if err != nil {
		return err
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("migrations completed")
	return st.Close()
}
