package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"jobapply-engine/internal/config"
	"jobapply-engine/internal/events"
	"jobapply-engine/internal/httpapi"
	"jobapply-engine/internal/logging"
	"jobapply-engine/internal/mailer"
	"jobapply-engine/internal/notify"
	"jobapply-engine/internal/poll"
	"jobapply-engine/internal/scrape"
	"jobapply-engine/internal/scrape/topjobs"
	"jobapply-engine/internal/scrape/util"
	"jobapply-engine/internal/secrets"
	"jobapply-engine/internal/store"
)

// app holds what every command needs: validated config, the logger and
// the lazily opened applications database.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	closers []io.Closer
	db      *store.DB
}

func newApp() (*app, error) {
	path := configFile
	if path == "" {
		p, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := config.OverlayEnv(&cfg, filepath.Join(dataDir, ".env")); err != nil {
		return nil, err
	}
	config.ResolvePaths(&cfg, dataDir)

	cfg, v := config.NormalizeAndValidate(cfg)
	if err := v.Err(); err != nil {
		return nil, err
	}

	log, closer, err := logging.Setup(cfg.App.LogDir, debugMode)
	if err != nil {
		return nil, fmt.Errorf("log setup failed: %w", err)
	}
	for _, w := range v.Warnings {
		log.Warn("[config] " + w)
	}
	log.Debug("[config] loaded", "file", path)

	return &app{cfg: cfg, log: log, closers: []io.Closer{closer}}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func (a *app) openDB() (*store.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := store.Open(a.cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.Storage.DBPath, err)
	}
	a.db = db
	a.closers = append(a.closers, db)
	return db, nil
}

func (a *app) pipeline() *scrape.Pipeline {
	tj := topjobs.New(topjobs.ConfigFrom(a.cfg), a.log)
	limiter := util.NewHostLimiter(a.cfg.Scrape.RequestsPerSecond, 1)
	return scrape.NewPipeline(a.cfg, tj, tj, limiter, a.log)
}

func (a *app) mailer() (*mailer.Mailer, error) {
	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	return mailer.NewFromConfig(a.cfg, db.Pool, a.log), nil
}

// runner wires scrape -> mail -> notify. withMail=false or mail.enabled=false
// leaves the mail step out.
func (a *app) runner(withMail bool) *poll.Runner {
	r := &poll.Runner{Scrape: a.pipeline(), Log: a.log}

	if withMail && a.cfg.Mail.Enabled {
		m, err := a.mailer()
		if err != nil {
			a.log.Error("[run] mail step unavailable", "err", err)
		} else {
			r.Mail = m
		}
	}

	if tg := a.cfg.Notify.Telegram; tg.Enabled {
		rep, err := notify.NewTelegramReporter(tg.Token, tg.ChatID)
		if err != nil {
			a.log.Warn("[run] telegram disabled", "err", err)
		} else {
			r.Reporter = rep
		}
	}
	return r
}

func (a *app) serve(ctx context.Context) error {
	db, err := a.openDB()
	if err != nil {
		return err
	}

	var status atomic.Value
	hub := events.NewHub()
	poller := poll.NewPoller(a.runner(true), &status, a.log)
	poller.Events = hub

	// Bind to a predictable local port.
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(a.cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.NewHandler(httpapi.Deps{DB: db.Pool, Runner: poller, Hub: hub, Log: a.log}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.log.Info("engine listening", "url", "http://"+addr, "every", a.cfg.Interval().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		poller.Start(gctx, a.cfg.Interval())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *app) setSMTPPassword(in io.Reader) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if err := secrets.SetSMTPPassword(a.cfg, strings.TrimRight(line, "\r\n")); err != nil {
		return err
	}
	a.log.Info("[secrets] SMTP password stored in keychain", "account", secrets.SMTPKeyringAccount(a.cfg))
	return nil
}

func (a *app) deleteSMTPPassword() error {
	if err := secrets.DeleteSMTPPassword(a.cfg); err != nil {
		return err
	}
	a.log.Info("[secrets] SMTP password removed from keychain", "account", secrets.SMTPKeyringAccount(a.cfg))
	return nil
}
