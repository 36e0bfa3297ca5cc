// Package conflict decides what happens when an install would overwrite an existing file.
package conflict

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/conn-castle/package-console/internal/host"
	"github.com/conn-castle/package-console/internal/messages"
)

// Action is the verdict for one conflicting file.
type Action int

// Conflict verdicts.
const (
	Overwrite Action = iota
	OverwriteAll
	Ignore
	IgnoreAll
)

func (a Action) String() string {
	switch a {
	case Overwrite:
		return "overwrite"
	case OverwriteAll:
		return "overwrite-all"
	case Ignore:
		return "ignore"
	case IgnoreAll:
		return "ignore-all"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ShouldOverwrite reports whether the verdict replaces the existing file.
func (a Action) ShouldOverwrite() bool {
	return a == Overwrite || a == OverwriteAll
}

// Mode is the configured conflict behavior: prompt, or always answer with a fixed action.
type Mode struct {
	action *Action
}

// PromptMode asks the user for every undecided conflict.
var PromptMode = Mode{}

// FixedMode always answers with action.
func FixedMode(action Action) Mode {
	return Mode{action: &action}
}

// IsPrompt reports whether the mode prompts.
func (m Mode) IsPrompt() bool {
	return m.action == nil
}

// Action returns the fixed action and whether one is configured.
func (m Mode) Action() (Action, bool) {
	if m.action == nil {
		return 0, false
	}
	return *m.action, true
}

func (m Mode) String() string {
	if m.action == nil {
		return "prompt"
	}
	return m.action.String()
}

// ParseMode parses a config or flag value. Empty means prompt.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "prompt":
		return PromptMode, nil
	case "overwrite":
		return FixedMode(Overwrite), nil
	case "overwrite-all", "overwriteall":
		return FixedMode(OverwriteAll), nil
	case "ignore":
		return FixedMode(Ignore), nil
	case "ignore-all", "ignoreall":
		return FixedMode(IgnoreAll), nil
	default:
		return Mode{}, fmt.Errorf(messages.ConflictInvalidModeFmt, raw)
	}
}

// Prompter asks the user to pick one of several choices.
type Prompter interface {
	PromptForChoice(caption string, message string, choices []host.Choice, defaultChoice int) (int, error)
}

// ErrPromptRequired is returned when a conflict must be prompted but no prompter exists.
var ErrPromptRequired = errors.New(messages.ConflictPromptRequired)

// Prompt choice indices.
const (
	choiceYes = iota
	choiceYesAll
	choiceNo
	choiceNoAll
)

// Choices returns the four prompt options in index order.
func Choices() []host.Choice {
	return []host.Choice{
		{Label: messages.ConflictChoiceYes, Help: messages.ConflictHelpYes},
		{Label: messages.ConflictChoiceYesAll, Help: messages.ConflictHelpYesAll},
		{Label: messages.ConflictChoiceNo, Help: messages.ConflictHelpNo},
		{Label: messages.ConflictChoiceNoAll, Help: messages.ConflictHelpNoAll},
	}
}

// Policy holds the per-command conflict state.
type Policy struct {
	mu           sync.Mutex
	prompter     Prompter
	mode         Mode
	overwriteAll bool
	ignoreAll    bool
}

// NewPolicy creates a policy with no sticky decision.
func NewPolicy(prompter Prompter, mode Mode) *Policy {
	return &Policy{prompter: prompter, mode: mode}
}

// SetDefault replaces the configured mode. Sticky decisions are kept.
func (p *Policy) SetDefault(mode Mode) {
	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()
}

// Mode returns the configured mode.
func (p *Policy) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Reset clears sticky decisions.
func (p *Policy) Reset() {
	p.mu.Lock()
	p.overwriteAll = false
	p.ignoreAll = false
	p.mu.Unlock()
}

// Resolve returns the verdict for one conflicting file described by message.
func (p *Policy) Resolve(message string) (Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ignoreAll {
		return IgnoreAll, nil
	}
	if p.overwriteAll {
		return OverwriteAll, nil
	}
	if action, ok := p.mode.Action(); ok {
		return action, nil
	}
	if p.prompter == nil {
		return Ignore, ErrPromptRequired
	}

	choice, err := p.prompter.PromptForChoice(messages.ConflictPromptCaption, message, Choices(), choiceNo)
	if err != nil {
		return Ignore, err
	}
	switch choice {
	case choiceYes:
		return Overwrite, nil
	case choiceYesAll:
		p.overwriteAll = true
		return OverwriteAll, nil
	case choiceNo:
		return Ignore, nil
	case choiceNoAll:
		p.ignoreAll = true
		return IgnoreAll, nil
	default:
		return Ignore, nil
	}
}
