// Package app wires the components together and drives the action menu.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"mailpilot/internal/approval"
	"mailpilot/internal/campaign"
	"mailpilot/internal/config"
	"mailpilot/internal/responder"
	"mailpilot/internal/store"
)

// App is the top-level orchestrator. One action runs to completion before
// the next is accepted.
type App struct {
	cfg        *config.Config
	logger     zerolog.Logger
	surface    approval.Surface
	threads    *store.ThreadStore
	responder  *responder.Runner
	campaign   *campaign.Runner
	campaignID string
}

// New creates the orchestrator.
func New(cfg *config.Config, logger zerolog.Logger, surface approval.Surface, threads *store.ThreadStore, resp *responder.Runner, camp *campaign.Runner) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		surface:    surface,
		threads:    threads,
		responder:  resp,
		campaign:   camp,
		campaignID: campaign.DefaultCampaignID,
	}
}

// Run loops on the action menu until the operator quits.
func (a *App) Run(ctx context.Context) error {
	a.surface.Infof("MailPilot - Email Marketing & Auto-Responder")

	for {
		action, err := a.surface.PromptAction()
		if err != nil {
			return err
		}

		switch action {
		case approval.ActionCampaign:
			a.runCampaign(ctx)
		case approval.ActionCheckMail:
			if err := a.responder.Run(ctx); err != nil {
				a.logger.Error().Err(err).Msg("Response cycle failed")
				a.surface.Errorf("Response cycle failed: %v", err)
			}
		case approval.ActionViewThreads:
			a.viewActiveThreads()
		case approval.ActionQuit:
			a.surface.Infof("Goodbye!")
			return nil
		}
	}
}

func (a *App) runCampaign(ctx context.Context) {
	recipients, err := campaign.LoadRecipients(a.cfg.CustomerListFile, a.logger)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to load recipient list")
		a.surface.Errorf("Failed to load recipient list: %v", err)
		return
	}
	if len(recipients) == 0 {
		a.surface.Warnf("No recipients found in %s", a.cfg.CustomerListFile)
		return
	}

	if _, err := a.campaign.Run(ctx, a.campaignID, recipients); err != nil {
		a.logger.Error().Err(err).Str("campaign", a.campaignID).Msg("Campaign run failed")
		a.surface.Errorf("Campaign failed: %v", err)
	}
}

func (a *App) viewActiveThreads() {
	ids := a.threads.ActiveThreads()
	if len(ids) == 0 {
		a.surface.Infof("No active threads")
		return
	}

	a.surface.Infof("Active threads (%d):", len(ids))
	for _, id := range ids {
		if summary, ok := a.threads.Summary(id); ok {
			a.surface.ShowSummary(summary)
		}
	}
}
