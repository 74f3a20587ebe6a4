// Command analyze runs one credibility analysis batch from the terminal,
// rendering the simulated progress the dashboard would otherwise show.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/narrisia/email-orchestrator/config"
	"github.com/narrisia/email-orchestrator/internal/analysis"
	"github.com/narrisia/email-orchestrator/internal/company"
	"github.com/narrisia/email-orchestrator/internal/domain"
	"github.com/narrisia/email-orchestrator/internal/mail"
	"github.com/narrisia/email-orchestrator/internal/progress"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to config file")
	token := flag.String("token", os.Getenv("OAUTH_TOKEN"), "OAuth access token (or OAUTH_TOKEN env var)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "An OAuth access token is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	reports, err := runAnalysis(cfg, *token)
	if err != nil {
		slog.Error("Analysis failed", "error", err)
		os.Exit(1)
	}

	printReports(reports)
}

func runAnalysis(cfg *config.Config, token string) ([]domain.AnalysisReport, error) {
	timeout := time.Duration(cfg.Analysis.RequestTimeoutSeconds) * time.Second
	pipeline := &analysis.Pipeline{
		Mail:       mail.New(cfg.Mail.BaseURL, cfg.Mail.MaxResults, timeout),
		Details:    company.NewDetailsFetcher(cfg.Analysis.UserAgent, timeout),
		Classifier: analysis.NewKeywordClassifier(),
	}

	bar := progressbar.NewOptions(
		100,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetDescription("Analyzing inbox..."),
	)

	sim := progress.New()
	sim.AddListener(func(snap progress.Snapshot) {
		_ = bar.Set(int(snap.Percent))
		if snap.CurrentStep != "" {
			bar.Describe(snap.CurrentStep)
		}
	})

	reports, err := progress.Run(context.Background(), sim, analysis.Steps, func(ctx context.Context) ([]domain.AnalysisReport, error) {
		return pipeline.Analyze(ctx, token)
	})
	fmt.Println()
	return reports, err
}

func printReports(reports []domain.AnalysisReport) {
	if len(reports) == 0 {
		fmt.Println("No unread emails to analyze.")
		return
	}

	for _, r := range reports {
		score := 0.0
		if r.Credibility != nil {
			score = r.Credibility.Score
		}
		intent := "unknown"
		if r.EmailClassification != nil {
			intent = r.EmailClassification.Intent
		}
		fmt.Printf("%-20s score=%5.1f quality=%-6s intent=%s\n", r.CompanyName, score, r.ContactQuality, intent)
	}
}
