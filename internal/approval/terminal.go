package approval

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"mailpilot/internal/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	bodyStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("14")).Padding(1, 2)
	contextStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("11")).Padding(1, 2)
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("13")).Padding(0, 1)

	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// Terminal is the interactive implementation of Surface.
type Terminal struct {
	logger zerolog.Logger
}

// NewTerminal creates the interactive approval surface.
func NewTerminal(logger zerolog.Logger) *Terminal {
	return &Terminal{logger: logger}
}

// ConfirmDraft renders the draft and blocks on a yes/no prompt.
func (t *Terminal) ConfirmDraft(draft models.Draft) (bool, error) {
	fmt.Println()
	fmt.Println(headerStyle.Render("Email Draft Review"))
	fmt.Println()
	fmt.Printf("%s %s\n", labelStyle.Render("To:"), draft.To)
	fmt.Printf("%s %s\n", labelStyle.Render("Subject:"), draft.Subject)
	fmt.Printf("%s %s\n", labelStyle.Render("Thread:"), shortThreadID(draft.ThreadID))
	fmt.Println()
	fmt.Println(bodyStyle.Render(draft.Body))

	if draft.Context != "" {
		fmt.Println()
		fmt.Println(headerStyle.Render("Conversation Context"))
		fmt.Println(contextStyle.Render(draft.Context))
	}
	fmt.Println()

	var approved bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Send this email?").
			Affirmative("Send").
			Negative("Reject").
			Value(&approved),
	))
	if err := form.Run(); err != nil {
		return false, fmt.Errorf("approval prompt failed: %w", err)
	}

	t.logger.Info().
		Str("to", draft.To).
		Str("thread_id", draft.ThreadID).
		Bool("approved", approved).
		Msg("Draft approval decision")

	return approved, nil
}

// PromptAction shows the top-level action menu.
func (t *Terminal) PromptAction() (Action, error) {
	var action Action
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[Action]().
			Title("MailPilot").
			Options(
				huh.NewOption("Send marketing campaign", ActionCampaign),
				huh.NewOption("Check for new emails", ActionCheckMail),
				huh.NewOption("View active threads", ActionViewThreads),
				huh.NewOption("Quit", ActionQuit),
			).
			Value(&action),
	))
	if err := form.Run(); err != nil {
		return ActionQuit, fmt.Errorf("action prompt failed: %w", err)
	}
	return action, nil
}

// ShowSummary renders one active-thread snapshot.
func (t *Terminal) ShowSummary(summary models.ThreadSummary) {
	terminal := "no"
	if summary.Terminal {
		terminal = "yes"
	}
	origin := "inbound"
	if summary.MarketingOrigin {
		origin = "campaign"
	}

	content := fmt.Sprintf(
		"Thread %s\nCustomer: %s\nMessages: %d\nCreated: %s\nMeeting scheduled: %s\nOrigin: %s\nLast sender: %s",
		shortThreadID(summary.ThreadID),
		summary.CustomerEmail,
		summary.MessageCount,
		summary.CreatedAt.Format("2006-01-02 15:04"),
		terminal,
		origin,
		summary.LastSender,
	)
	fmt.Println(summaryStyle.Render(content))
}

func (t *Terminal) Infof(format string, args ...any) {
	fmt.Println(infoStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *Terminal) Successf(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *Terminal) Warnf(format string, args ...any) {
	fmt.Println(warnStyle.Render(fmt.Sprintf(format, args...)))
}

func (t *Terminal) Errorf(format string, args ...any) {
	fmt.Println(errorStyle.Render(fmt.Sprintf(format, args...)))
}
