package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/action"
	"github.com/tokimonsterAI/agent/internal/chain"
	"github.com/tokimonsterAI/agent/internal/deploy"
	"github.com/tokimonsterAI/agent/internal/idhash"
	"github.com/tokimonsterAI/agent/internal/interaction"
	"github.com/tokimonsterAI/agent/internal/llm"
	"github.com/tokimonsterAI/agent/internal/notify"
	"github.com/tokimonsterAI/agent/internal/timeline"
)

var runOpts struct {
	stores   storeOptions
	httpAddr string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interaction poller",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runAgent(ctx)
	},
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runOpts.stores.useMemory, "use-memory", false, "Use in-memory storage instead of PostgreSQL")
	f.StringVar(&runOpts.stores.postgresDSN, "postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	f.StringVar(&runOpts.stores.clickhouseDSN, "clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for the evaluation audit log (optional)")
	f.IntVar(&runOpts.stores.cacheSize, "cache-size", 1024, "Entries kept by the in-memory transcript cache")
	f.StringVar(&runOpts.stores.s3.Endpoint, "s3-endpoint", os.Getenv("S3_ENDPOINT"), "S3 endpoint for generation transcripts (optional)")
	f.StringVar(&runOpts.stores.s3.Bucket, "s3-bucket", envOr("S3_BUCKET", "tokimonster-transcripts"), "S3 bucket for generation transcripts")
	f.StringVar(&runOpts.stores.s3.Region, "s3-region", os.Getenv("S3_REGION"), "S3 region")
	f.BoolVar(&runOpts.stores.s3.UseSSL, "s3-ssl", true, "Use TLS for S3")
	f.StringVar(&runOpts.httpAddr, "http-addr", envOr("HTTP_ADDR", ":9090"), "Address for /health, /metrics and the notification feed")
}

func runAgent(ctx context.Context) error {
	char, cfg, err := loadCharacterConfig(characterPath)
	if err != nil {
		return err
	}
	if !runOpts.stores.useMemory && runOpts.stores.postgresDSN == "" {
		return errors.New("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	runOpts.stores.s3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	runOpts.stores.s3.SecretKey = os.Getenv("S3_SECRET_KEY")

	agentID := idhash.AgentID(char.Name)
	logger = logger.With(zap.String("agent", char.Name))

	stores, cleanup, err := createStores(ctx, runOpts.stores, agentID, logger)
	if err != nil {
		return fmt.Errorf("failed to create stores: %w", err)
	}
	defer cleanup()

	client := timeline.NewHTTPClient(timeline.Credentials{
		AppKey:       cfg.AppKey,
		AppSecret:    cfg.AppSecret,
		AccessToken:  cfg.AccessToken,
		AccessSecret: cfg.AccessSecret,
	},
		timeline.WithLoginAttempts(cfg.RetryLimit),
		timeline.WithExpectedUsername(cfg.Username),
		timeline.WithTimeout(cfg.CallTimeout()),
		timeline.WithLogger(logger),
	)

	gemini, err := llm.NewGemini(ctx, llm.GeminiConfig{
		APIKey: cfg.GoogleAPIKey,
		Model:  cfg.GoogleModel,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create llm provider: %w", err)
	}

	hub := notify.NewHub(logger)
	defer hub.Close()
	notifier := notify.NewMulti(logger,
		notify.NewTelegramSink(cfg.TelegramToken, cfg.TelegramChatID),
		hub,
	)

	chainClient := chain.NewAptosClient(cfg.ChainNodeURL,
		chain.WithTimeout(cfg.CallTimeout()),
		chain.WithLogger(logger),
	)

	deployAction, err := deploy.New(deploy.Config{
		DryRun:           cfg.DeployDryRun,
		WalletPrivateKey: cfg.WalletPrivateKey,
		Network:          cfg.ChainNetwork,
	}, deploy.Deps{
		LLM:         gemini,
		Chain:       chainClient,
		Counter:     deploy.NewDailyCounter(stores.counters),
		Eligibility: deploy.NewEligibilityChecker(client, cfg.WhitelistedUsers),
		Notifier:    notifier,
		Audit:       stores.evaluations,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create deploy action: %w", err)
	}

	poller, err := interaction.NewPoller(interaction.PollerOptions{
		Client:    client,
		LLM:       gemini,
		Character: char,
		Config:    cfg,
		Memories:  stores.memories,
		Cursors:   stores.cursors,
		Cache:     stores.cache,
		Processor: action.NewProcessor(logger, deployAction),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	go serveHTTP(ctx, runOpts.httpAddr, newHTTPHandler(hub), logger)

	err = poller.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
