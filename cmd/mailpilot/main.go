package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"mailpilot/internal/ai"
	"mailpilot/internal/app"
	"mailpilot/internal/approval"
	"mailpilot/internal/campaign"
	"mailpilot/internal/config"
	"mailpilot/internal/mailbox"
	"mailpilot/internal/policy"
	"mailpilot/internal/responder"
	"mailpilot/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	if cfg.OpenAIKey == "" {
		logger.Fatal().Msg("OPENAI_API_KEY not found in environment variables")
	}
	if cfg.SendGridAPIKey == "" {
		logger.Fatal().Msg("SENDGRID_API_KEY not found in environment variables")
	}

	// Stores are constructed once here and passed down; they are flushed
	// to disk on every mutation.
	threads, err := store.NewThreadStore(cfg.ThreadStoreFile(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load thread store")
	}
	cursor, err := store.NewCursorStore(cfg.CursorFile(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load cycle cursor")
	}
	ledger, err := campaign.NewLedger(cfg.LedgerFile(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load campaign ledger")
	}

	customers, err := responder.LoadCustomers(cfg.CustomerListFile)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.CustomerListFile).Msg("Customer list not loaded")
		customers = map[string]struct{}{}
	} else {
		logger.Info().Int("count", len(customers)).Msg("Loaded customer email addresses")
	}

	signature := fmt.Sprintf("%s\n%s", cfg.FromName, cfg.FromEmail)
	generator := ai.NewOpenAIGenerator(cfg.OpenAIKey, signature, time.Duration(cfg.OpenAITimeout)*time.Second, logger)
	mb := mailbox.NewService(cfg, logger)
	surface := approval.NewTerminal(logger)

	detector := policy.NewDetector(cfg.MeetingKeywords)
	pol := policy.New(threads, cfg.ThreadExpiration(), detector, logger)

	resp := responder.NewRunner(mb, generator, surface, threads, cursor, pol, customers, cfg, logger)
	camp := campaign.NewRunner(ledger, campaign.NewRegistry(), mb, surface, threads, logger)

	application := app.New(cfg, logger, surface, threads, resp, camp)
	if err := application.Run(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Application exited with error")
		os.Exit(1)
	}
}
