package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Amritha902/infocruxapp/internal/alertlog"
	"github.com/Amritha902/infocruxapp/internal/anomaly"
	"github.com/Amritha902/infocruxapp/internal/flow"
	"github.com/Amritha902/infocruxapp/internal/flow/flowobs"
	"github.com/Amritha902/infocruxapp/internal/interfaces"
	"github.com/Amritha902/infocruxapp/internal/llm/claude"
	"github.com/Amritha902/infocruxapp/internal/llm/gemini"
	"github.com/Amritha902/infocruxapp/internal/llm/llmobs"
	"github.com/Amritha902/infocruxapp/internal/llm/noop"
	"github.com/Amritha902/infocruxapp/internal/llm/openai"
	"github.com/Amritha902/infocruxapp/internal/llm/retry"
	"github.com/Amritha902/infocruxapp/internal/logger"
	"github.com/Amritha902/infocruxapp/internal/marketdata"
	"github.com/Amritha902/infocruxapp/internal/monitor"
	"github.com/Amritha902/infocruxapp/internal/news"
	"github.com/Amritha902/infocruxapp/internal/notify"
	"github.com/Amritha902/infocruxapp/internal/store"
	"github.com/Amritha902/infocruxapp/internal/trace"
	"github.com/Amritha902/infocruxapp/internal/websearch"
)

// App holds the wired services for one command run.
type App struct {
	Config  *store.Config
	Store   interfaces.DataStore
	Analyst interfaces.Analyst
	News    *news.Service
	Monitor *monitor.Monitor

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(f func()) {
	a.closers = append(a.closers, f)
}

// initializeSystem loads configuration, then sets up logging and tracing
// from it.
func initializeSystem(configPath string) (*store.Config, error) {
	_ = godotenv.Load()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.InitWithConfig(logger.LogConfig{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		DetailedLogging: cfg.Logging.Detailed,
	}.WithEnv()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Logging.Tracing {
		err = trace.InitStdout()
	} else {
		err = trace.Init()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return cfg, nil
}

// loadConfig reads the config file, falling back to defaults when the
// file does not exist.
func loadConfig(path string) (*store.Config, error) {
	cfg, err := store.LoadConfigOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// initializeApp wires every service a command may need.
func initializeApp(ctx context.Context, cfg *store.Config) (*App, error) {
	app := &App{Config: cfg}

	ds, err := initializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = ds
	app.onClose(func() {
		if err := ds.Close(); err != nil {
			logger.Warn(ctx, "Failed to close data store", "error", err)
		}
	})

	model, closeModel := initializeModel(ctx, cfg)
	app.onClose(closeModel)

	searcher, closeSearcher, err := initializeSearcher(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.onClose(closeSearcher)

	history, err := initializeHistory(ctx, cfg, ds)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Analyst = initializeAnalyst(cfg, model, searcher, history)
	app.News = initializeNews(cfg, ds)
	app.onClose(app.News.Close)

	notifier, err := initializeNotifier(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Monitor = monitor.New(ds, notifier)

	return app, nil
}

func initializeStore(ctx context.Context, cfg *store.Config) (interfaces.DataStore, error) {
	switch cfg.Data.Backend {
	case "BADGER":
		logger.Info(ctx, "Using badger market data store", "path", cfg.Data.Path)
		return marketdata.OpenBadger(ctx, cfg.Data.Path)
	default:
		logger.Info(ctx, "Using in-memory market data store")
		return marketdata.NewMemoryStore(), nil
	}
}

// initializeModel builds the configured provider with retries and
// observability. Without a provider the noop model is used and every flow
// reports a generation failure.
func initializeModel(ctx context.Context, cfg *store.Config) (interfaces.Model, func()) {
	key := cfg.LLMAPIKey()
	closer := func() {}

	var base interfaces.Model
	provider := cfg.LLM.Provider
	switch {
	case provider == "GEMINI" && key != "":
		p := gemini.New(gemini.Config{
			APIKey:      key,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLMTimeout(),
		})
		base = p
		closer = func() { _ = p.Close() }
	case provider == "CLAUDE" && key != "":
		base = claude.New(claude.Config{
			APIKey:      key,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Endpoint:    cfg.LLM.Endpoint,
		})
	case provider == "OPENAI" && key != "":
		base = openai.New(openai.Config{
			APIKey:      key,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			BaseURL:     cfg.LLM.Endpoint,
		})
	default:
		if provider != "NOOP" {
			logger.Warn(ctx, "API key not set - falling back to Noop model", "provider", provider, "env", cfg.LLM.APIKeyEnv)
		} else {
			logger.Warn(ctx, "No LLM provider configured - using Noop model")
		}
		provider = "NOOP"
		base = noop.New()
	}

	if provider != "NOOP" {
		base = retry.Wrap(base, retry.Config{
			MaxAttempts:    cfg.LLM.Retry.MaxAttempts,
			InitialBackoff: seconds(cfg.LLM.Retry.InitialBackoffSec),
			MaxBackoff:     seconds(cfg.LLM.Retry.MaxBackoffSec),
		})
	}
	logger.Info(ctx, "Model initialized", "provider", provider, "model", cfg.LLM.Model)
	return llmobs.Wrap(base, strings.ToLower(provider)), closer
}

// initializeSearcher returns a nil searcher when web search is disabled,
// which removes the tool from the chat flow.
func initializeSearcher(ctx context.Context, cfg *store.Config) (interfaces.WebSearcher, func(), error) {
	ws := cfg.WebSearch
	var base interfaces.WebSearcher

	switch ws.Provider {
	case "NONE":
		logger.Info(ctx, "Web search disabled")
		return nil, func() {}, nil
	case "CSE":
		cse, err := websearch.NewCSE(os.Getenv(ws.APIKeyEnv), ws.EngineID, ws.MaxResults)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to configure web search: %w", err)
		}
		base = cse
	case "NEWS":
		sc := websearch.DefaultScraperConfig()
		sc.MaxResults = ws.MaxResults
		base = websearch.NewNewsScraper(sc)
	default:
		answer := ws.StaticAnswer
		if answer == "" {
			answer = websearch.DefaultStaticAnswer
		}
		base = websearch.NewStatic(answer)
		logger.Info(ctx, "Using static web search answers")
		return base, func() {}, nil
	}

	cached := websearch.NewCached(base, time.Duration(ws.CacheMinutes)*time.Minute)
	logger.Info(ctx, "Web search initialized", "provider", ws.Provider, "cache_minutes", ws.CacheMinutes)
	return cached, cached.Close, nil
}

func initializeHistory(ctx context.Context, cfg *store.Config, ds interfaces.DataStore) (interfaces.AnomalyHistory, error) {
	a := cfg.Anomaly
	switch a.Source {
	case "NONE":
		logger.Info(ctx, "Anomaly history disabled")
		return nil, nil
	case "KITE":
		h, err := anomaly.NewKiteHistory(anomaly.KiteConfig{
			APIKey:      os.Getenv(a.APIKeyEnv),
			AccessToken: os.Getenv(a.AccessTokenEnv),
			Lookback:    time.Duration(a.LookbackDays) * 24 * time.Hour,
			Detect: anomaly.Config{
				ReturnThreshold: a.ReturnThreshold,
				VolumeThreshold: a.VolumeThreshold,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure anomaly history: %w", err)
		}
		logger.Info(ctx, "Using LIVE anomaly history from Kite Connect", "lookback_days", a.LookbackDays)
		return h, nil
	default:
		logger.Info(ctx, "Using stored announcements for anomaly history")
		return anomaly.NewStoreHistory(ds), nil
	}
}

func initializeAnalyst(cfg *store.Config, model interfaces.Model, searcher interfaces.WebSearcher, history interfaces.AnomalyHistory) interfaces.Analyst {
	f := flow.New(model, flow.Config{
		MaxToolRounds: cfg.LLM.MaxToolRounds,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
	}, searcher, history)
	return flowobs.Wrap(f)
}

func initializeNews(cfg *store.Config, ds interfaces.DataStore) *news.Service {
	sc := news.DefaultServiceConfig()
	sc.CacheDuration = time.Duration(cfg.News.CacheMinutes) * time.Minute
	sc.Enabled = len(cfg.News.Feeds) > 0

	var feed news.Source
	if sc.Enabled {
		feed = news.NewFeed(cfg.News.Feeds, time.Duration(cfg.News.TimeoutSeconds)*time.Second)
	}
	return news.NewService(ds, feed, sc)
}

// initializeNotifier always logs alerts, journals them when a journal
// directory is configured and sends email when enabled.
func initializeNotifier(ctx context.Context, cfg *store.Config) (interfaces.Notifier, error) {
	notifiers := notify.Multi{notify.LogNotifier{}}

	if dir := cfg.Monitor.JournalDir; dir != "" {
		journal := alertlog.New(dir)
		if err := journal.CompressOlder(ctx, cfg.Monitor.RetentionDays); err != nil {
			logger.Warn(ctx, "Failed to compress old alert journals", "dir", dir, "error", err)
		}
		logger.Info(ctx, "Alert journal enabled", "dir", dir)
		notifiers = append(notifiers, journal)
	}

	e := cfg.Notify.Email
	if !e.Enabled {
		return notifiers, nil
	}
	email, err := notify.NewEmailNotifier(notify.EmailConfig{
		SMTPServer: e.SMTPServer,
		SMTPPort:   e.SMTPPort,
		SMTPUser:   e.SMTPUser,
		SMTPPass:   os.Getenv(e.SMTPPassEnv),
		FromEmail:  e.From,
		ToEmails:   e.To,
		Enabled:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure email alerts: %w", err)
	}
	logger.Info(ctx, "Email alerts enabled", "recipients", len(e.To))
	return append(notifiers, email), nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
