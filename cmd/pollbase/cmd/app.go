package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	pollbase "github.com/pollbase/pollbase-go"
	"github.com/pollbase/pollbase-go/internal/audit"
	"github.com/pollbase/pollbase-go/internal/cache"
	"github.com/pollbase/pollbase-go/internal/config"
	"github.com/pollbase/pollbase-go/internal/observability"
	"github.com/pollbase/pollbase-go/pkg/credstore"
)

// app bundles everything a command needs: config, the API client with its
// persistent session, and lazily-opened cache and audit trail.
type app struct {
	cfg     *config.Config
	client  *pollbase.Client
	creds   *credstore.FileStore
	profile string
	logger  *slog.Logger
	tracing *observability.Tracing
	cache   *cache.Store
}

// newApp loads config, applies flags, and builds the API client with the
// profile's persisted session token.
func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if profileFlag != "" {
		cfg.Profile = profileFlag
	}
	api, profile := cfg.Active()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	creds := credstore.NewFileStore(cfg.CredentialsPath, logger)

	opts := []pollbase.Option{
		pollbase.WithTokenStore(credstore.NewFileTokenStore(creds, profile)),
		pollbase.WithLogger(logger),
		pollbase.WithOnSessionExpired(func() {
			fmt.Fprintln(os.Stderr, "Session expired; run `pollbase login` to authenticate again.")
		}),
	}
	if api.URL != "" {
		opts = append(opts, pollbase.WithBaseURL(api.URL))
	}
	if d, err := time.ParseDuration(api.Timeout); err == nil {
		opts = append(opts, pollbase.WithTimeout(d))
	}
	if d, err := time.ParseDuration(api.ExpiryBuffer); err == nil {
		opts = append(opts, pollbase.WithExpiryBuffer(d))
	}

	a := &app{cfg: cfg, creds: creds, profile: profile, logger: logger}

	if traceFlag {
		tracing, err := observability.Setup(Version)
		if err != nil {
			return nil, err
		}
		a.tracing = tracing
		opts = append(opts, pollbase.WithTracerProvider(tracing.Provider()))
	}

	a.client = pollbase.NewClient(opts...)
	return a, nil
}

// Close flushes tracing and closes the cache if they were opened.
func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.tracing.Shutdown(ctx)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// withCache runs fetch through the persistent response cache when --cached
// is set. The key is the logical request the command is about to make.
func (a *app) withCache(ctx context.Context, key string, out any, fetch func() (any, error)) error {
	if !cachedFlag {
		v, err := fetch()
		if err != nil {
			return err
		}
		return reencode(v, out)
	}

	if a.cache == nil {
		ttl, err := time.ParseDuration(a.cfg.Cache.TTL)
		if err != nil {
			ttl = 5 * time.Minute
		}
		store, err := cache.Open(a.cfg.Cache.Path, ttl)
		if err != nil {
			return fmt.Errorf("open response cache: %w", err)
		}
		a.cache = store
	}

	if data, err := a.cache.Get(ctx, key); err == nil {
		return json.Unmarshal(data, out)
	} else if !errors.Is(err, cache.ErrMiss) {
		a.logger.Warn("response cache read failed", "error", err)
	}

	v, err := fetch()
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}
	if err := a.cache.Put(ctx, key, data); err != nil {
		a.logger.Warn("response cache write failed", "error", err)
	}
	return json.Unmarshal(data, out)
}

// reencode copies v into out through JSON, matching the cached-read path.
func reencode(v, out any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// recordMutation appends an entry to the local audit trail. Trail failures
// are logged, never fatal: the mutation itself already happened.
func (a *app) recordMutation(command, resource, resourceID string, opErr error) {
	trail, err := audit.Open(audit.Config{
		Dir:           a.cfg.Audit.Dir,
		RetentionDays: a.cfg.Audit.RetentionDays,
		MaxFileSizeMB: a.cfg.Audit.MaxFileSizeMB,
		CacheSize:     a.cfg.Audit.CacheSize,
	}, a.logger)
	if err != nil {
		a.logger.Warn("audit trail unavailable", "error", err)
		return
	}
	defer func() { _ = trail.Close() }()

	e := audit.Entry{
		Timestamp:  time.Now().UTC(),
		Profile:    a.profile,
		Command:    command,
		Resource:   resource,
		ResourceID: resourceID,
		Outcome:    "success",
	}
	if opErr != nil {
		e.Outcome = "error"
		e.Error = opErr.Error()
	}
	if err := trail.Append(e); err != nil {
		a.logger.Warn("audit trail append failed", "error", err)
	}
}
