// Package approval is the human-in-the-loop surface: draft review,
// action selection, and operator-facing status output.
package approval

import (
	"fmt"

	"mailpilot/internal/models"
)

// Action is one top-level operator choice.
type Action int

const (
	ActionCampaign Action = iota + 1
	ActionCheckMail
	ActionViewThreads
	ActionQuit
)

// Surface is the approval contract consumed by the runners. ConfirmDraft
// blocks until the operator decides; there is no timeout.
type Surface interface {
	// ConfirmDraft shows a draft (and its conversation context, when
	// present) and returns the operator's decision.
	ConfirmDraft(draft models.Draft) (bool, error)

	// PromptAction asks for the next top-level action.
	PromptAction() (Action, error)

	// ShowSummary renders an active-thread snapshot.
	ShowSummary(summary models.ThreadSummary)

	Infof(format string, args ...any)
	Successf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// shortThreadID truncates a thread id for display.
func shortThreadID(id string) string {
	if id == "" {
		return "new thread"
	}
	if len(id) > 8 {
		return fmt.Sprintf("%s...", id[:8])
	}
	return id
}
