package testutil

import (
	"sync"

	"github.com/conn-castle/package-console/internal/host"
)

// Line is one message written to a RecordingUI.
type Line struct {
	Level   string
	Message string
}

// Prompt records one PromptForChoice call.
type Prompt struct {
	Caption       string
	Message       string
	Choices       []host.Choice
	DefaultChoice int
}

// RecordingUI is a host.UI that records every call.
// Answers are returned in order by PromptForChoice; once exhausted the default choice is returned.
type RecordingUI struct {
	mu        sync.Mutex
	Lines     []Line
	Progress  []host.ProgressRecord
	Prompts   []Prompt
	Answers   []int
	PromptErr error
}

var _ host.UI = (*RecordingUI)(nil)

func (u *RecordingUI) write(level string, message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Lines = append(u.Lines, Line{Level: level, Message: message})
}

// WriteDebug records a debug line.
func (u *RecordingUI) WriteDebug(message string) { u.write("debug", message) }

// WriteVerbose records a verbose line.
func (u *RecordingUI) WriteVerbose(message string) { u.write("verbose", message) }

// WriteInfo records an info line.
func (u *RecordingUI) WriteInfo(message string) { u.write("info", message) }

// WriteWarning records a warning line.
func (u *RecordingUI) WriteWarning(message string) { u.write("warning", message) }

// WriteError records an error line.
func (u *RecordingUI) WriteError(message string) { u.write("error", message) }

// WriteProgress records a progress update.
func (u *RecordingUI) WriteProgress(record host.ProgressRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Progress = append(u.Progress, record)
}

// PromptForChoice records the prompt and returns the next scripted answer.
func (u *RecordingUI) PromptForChoice(caption string, message string, choices []host.Choice, defaultChoice int) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Prompts = append(u.Prompts, Prompt{Caption: caption, Message: message, Choices: choices, DefaultChoice: defaultChoice})
	if u.PromptErr != nil {
		return 0, u.PromptErr
	}
	if len(u.Answers) == 0 {
		return defaultChoice, nil
	}
	answer := u.Answers[0]
	u.Answers = u.Answers[1:]
	return answer, nil
}

// Messages returns the recorded messages at level, in order.
func (u *RecordingUI) Messages(level string) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []string
	for _, line := range u.Lines {
		if line.Level == level {
			out = append(out, line.Message)
		}
	}
	return out
}

// AllLines returns a copy of every recorded line.
func (u *RecordingUI) AllLines() []Line {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Line(nil), u.Lines...)
}

// PromptCount returns the number of prompts shown.
func (u *RecordingUI) PromptCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.Prompts)
}
