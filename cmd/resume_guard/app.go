package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-guard/internal/archive"
	"github.com/jonathan/resume-guard/internal/config"
	"github.com/jonathan/resume-guard/internal/db"
	"github.com/jonathan/resume-guard/internal/engine"
	"github.com/jonathan/resume-guard/internal/events"
	"github.com/jonathan/resume-guard/internal/evidence"
	"github.com/jonathan/resume-guard/internal/fetch"
	"github.com/jonathan/resume-guard/internal/llm"
	"github.com/jonathan/resume-guard/internal/localdb"
	"github.com/jonathan/resume-guard/internal/logger"
	"github.com/jonathan/resume-guard/internal/overrides"
	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/rewriting"
	"github.com/jonathan/resume-guard/internal/store"
	"github.com/jonathan/resume-guard/internal/versions"
)

// evidenceConcurrency bounds parallel evidence queries per request.
const evidenceConcurrency = 4

// app is a fully wired engine plus everything that must be closed with it.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	engine  *engine.Engine
	closers []func() error
}

// open loads configuration and wires the engine for one command run.
func (c *cli) open(ctx context.Context) (*app, error) {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	st, err := openStore(ctx, a.cfg.Store, a.logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, st.Close)

	opts := engine.Options{
		Lookup: evidence.LookupOptions{
			TopK:        a.cfg.Evidence.TopK,
			Timeout:     a.cfg.Evidence.Timeout,
			Attempts:    a.cfg.Evidence.Retries + 1,
			Concurrency: evidenceConcurrency,
		},
		Fetcher:    fetch.NewJobDescriptionFetcher(a.cfg.Fetch.UseBrowser, a.logger),
		TruthMode:  a.cfg.TruthMode(),
		TopNSkills: a.cfg.Defaults.TopNSkills,
		Logger:     a.logger,
	}

	switch {
	case a.cfg.Evidence.URL != "":
		opts.Evidence = evidence.NewHTTPSource(a.cfg.Evidence.URL, nil)
	case a.cfg.Evidence.Dir != "":
		idx, err := evidence.NewDirIndex(a.cfg.Evidence.Dir, a.logger)
		if err != nil {
			return err
		}
		if err := idx.Watch(ctx); err != nil {
			a.logger.Warn("evidence directory will not be re-indexed", zap.Error(err))
		}
		opts.Evidence = idx
	}

	vmOpts, err := a.commitHooks(ctx)
	if err != nil {
		return err
	}
	vmOpts = append(vmOpts, versions.WithLogger(a.logger))
	if opts.Evidence != nil {
		vmOpts = append(vmOpts, versions.WithEvidence(opts.Evidence, opts.Lookup))
	}
	ledger := overrides.NewLedger(st, st)
	vm := versions.NewManager(st, ledger, vmOpts...)

	if a.cfg.LLM.APIKey != "" {
		llmCfg := llm.DefaultConfig()
		llmCfg.Timeout = a.cfg.LLM.Timeout
		client, err := llm.NewGeminiClient(ctx, llmCfg, a.cfg.LLM.APIKey)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		rw := rewriting.NewRewriter(client)
		rw.Timeout = a.cfg.LLM.Timeout
		opts.Rewriter = rw
		if a.cfg.LLM.ExtractSkills {
			opts.Extractor = parsing.NewLLMExtractor(client)
		}
	}

	a.engine = engine.New(vm, ledger, opts)
	return nil
}

// commitHooks connects the optional post-commit publishers, each bounded by
// its configured timeout.
func (a *app) commitHooks(ctx context.Context) ([]versions.Option, error) {
	var hooks []versions.Option
	if a.cfg.Events.AMQPURL != "" {
		pub, err := events.Dial(a.cfg.Events.AMQPURL, a.cfg.Events.Exchange)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		hooks = append(hooks, versions.WithHook(pub, a.cfg.Events.Timeout))
	}
	if a.cfg.Archive.S3Bucket != "" {
		arc, err := archive.Connect(ctx, archive.Options{
			Bucket:    a.cfg.Archive.S3Bucket,
			Region:    a.cfg.Archive.S3Region,
			Endpoint:  a.cfg.Archive.S3Endpoint,
			AccessKey: a.cfg.Archive.AccessKeyID,
			SecretKey: a.cfg.Archive.SecretKey,
			Prefix:    a.cfg.Archive.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, versions.WithHook(arc, a.cfg.Archive.Timeout))
	}
	return hooks, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			_ = database.Close()
			return nil, err
		}
		log.Debug("connected to postgres store")
		return database, nil
	case config.DriverSQLite:
		database, err := localdb.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Debug("opened sqlite store", zap.String("path", cfg.SQLitePath))
		return database, nil
	default:
		return store.NewMemory(), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
