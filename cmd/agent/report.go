package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/reporting"
	chstore "github.com/tokimonsterAI/agent/internal/storage/clickhouse"
	"github.com/tokimonsterAI/agent/internal/storage/migrations"
)

var reportOpts struct {
	clickhouseDSN string
	since         time.Duration
	outputDir     string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the deploy evaluation audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportOpts.clickhouseDSN == "" {
			return errors.New("--clickhouse-dsn is required")
		}
		ctx := cmd.Context()

		conn, err := migrations.RunClickhouseMigrations(ctx, reportOpts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		now := time.Now()
		gen := reporting.NewGenerator(chstore.NewEvaluationStore(conn))
		report, records, err := gen.Generate(ctx, now.Add(-reportOpts.since).UnixMilli(), now.UnixMilli())
		if err != nil {
			return err
		}

		if err := os.MkdirAll(reportOpts.outputDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		mdPath := filepath.Join(reportOpts.outputDir, "EVALUATIONS.md")
		if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}

		csvPath := filepath.Join(reportOpts.outputDir, "evaluations.csv")
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		if err := reporting.WriteCSV(f, records); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}

		logger.Info("report written",
			zap.String("markdown", mdPath),
			zap.String("csv", csvPath),
			zap.Int("evaluations", report.Summary.Total),
		)
		return nil
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportOpts.clickhouseDSN, "clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	f.DurationVar(&reportOpts.since, "since", 24*time.Hour, "Report window ending now")
	f.StringVar(&reportOpts.outputDir, "output-dir", "output", "Output directory for the report files")
}
