package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/scipunch/tvfeed/cache"
	"github.com/scipunch/tvfeed/config"
	"github.com/scipunch/tvfeed/feed"
	"github.com/scipunch/tvfeed/fetcher"
	"github.com/scipunch/tvfeed/filter"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app().RunContext(ctx, os.Args); err != nil {
		log.Fatalf("tvfeed: %s", err)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "tvfeed",
		Usage: "Browse a video feed of categories, subcategories and media items",
		Description: `Loads a master feed, walks its category tree and fetches content
feeds on demand. Successful responses are cached locally and served
again when a later request for the same feed fails.

Flags can generally be set via environment variables, e.g.:

--master-url => TVFEED_MASTER_URL=https://cdn.example.com/feed_master.json
--cache-backend => TVFEED_CACHE_BACKEND=bolt`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath(),
				Usage:   "path to a TOML or YAML config",
				EnvVars: []string{"TVFEED_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				EnvVars: []string{"TVFEED_DEBUG", "DEBUG"},
			},
			&cli.StringFlag{
				Name:    "master-url",
				Usage:   "master feed URL or path, overrides the config",
				EnvVars: []string{"TVFEED_MASTER_URL"},
			},
			&cli.BoolFlag{
				Name:    "persist",
				Usage:   "cache responses and fall back to them on failure",
				EnvVars: []string{"TVFEED_PERSIST"},
			},
			&cli.StringFlag{
				Name:    "cache-backend",
				Usage:   "sqlite, bolt or memory",
				EnvVars: []string{"TVFEED_CACHE_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "cache-path",
				Usage:   "cache database location",
				EnvVars: []string{"TVFEED_CACHE_PATH"},
			},
		},
		Before: func(cctx *cli.Context) error {
			setupLogging(cctx.Bool("debug"))
			return nil
		},
		Commands: []*cli.Command{
			categoriesCmd(),
			browseCmd(),
			serveCmd(),
			cacheCmd(),
		},
	}
}

func setupLogging(debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config and creates it if the default is missing.
// Global flags override file values.
func loadConfig(cctx *cli.Context) (config.Config, error) {
	cfgPath := cctx.String("config")
	conf, err := config.Read(cfgPath)
	if errors.Is(err, os.ErrNotExist) && cfgPath == config.DefaultPath() {
		if err := config.Write(cfgPath, conf); err != nil {
			return conf, fmt.Errorf("failed to write default config with %w", err)
		}
	} else if err != nil {
		return conf, fmt.Errorf("failed to read config with %w", err)
	}

	if cctx.IsSet("master-url") {
		conf.MasterFeedURL = cctx.String("master-url")
	}
	if cctx.IsSet("persist") {
		conf.Persist = cctx.Bool("persist")
	}
	if cctx.IsSet("cache-backend") {
		conf.Cache.Backend = cctx.String("cache-backend")
	}
	if cctx.IsSet("cache-path") {
		conf.Cache.Path = cctx.String("cache-path")
	}
	return conf, nil
}

func openStore(conf config.Config) (cache.Store, error) {
	store, err := cache.Open(conf.CacheOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	return store, nil
}

func fetcherOptions(conf config.Config) fetcher.Options {
	return fetcher.Options{
		BaseURL:   conf.MasterFeedURL,
		Timeout:   conf.HTTP.Timeout,
		UserAgent: conf.HTTP.UserAgent,
		Retry: fetcher.RetryConfig{
			MaxRetries:     conf.Retry.MaxRetries,
			InitialBackoff: conf.Retry.InitialBackoff,
			MaxBackoff:     conf.Retry.MaxBackoff,
			Timeout:        conf.Retry.Timeout,
		},
	}
}

// newClient wires the fetcher stack and, when persistence is on, the cache.
// The returned store is nil without persistence. Callers close it.
func newClient(conf config.Config) (*feed.Client, cache.Store, error) {
	var store cache.Store
	if conf.Persist {
		var err error
		if store, err = openStore(conf); err != nil {
			return nil, nil, err
		}
	}

	var storage feed.Storage
	if store != nil {
		storage = store
	}

	client := feed.New(fetcher.New(fetcherOptions(conf)), storage, feed.Options{
		MasterFeedURL: conf.MasterFeedURL,
		Persist:       conf.Persist,
		Limits:        filter.DefaultLimits(),
	})
	client.On(feed.EventError, func(e feed.Event) {
		slog.Error("feed error", "kind", e.Kind.String(), "error", e.Err)
		slog.Debug("feed error stack", "kind", e.Kind.String(), "stack", string(e.Stack))
	})
	return client, store, nil
}
