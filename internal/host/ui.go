// Package host defines the UI surface a command may touch and a terminal implementation of it.
//
// A UI is only ever called from the goroutine that owns the running command;
// background work reaches it through the relay.
package host

// UI is the leveled output, progress, and prompt surface of the host.
type UI interface {
	WriteDebug(message string)
	WriteVerbose(message string)
	WriteInfo(message string)
	WriteWarning(message string)
	WriteError(message string)
	WriteProgress(record ProgressRecord)
	PromptForChoice(caption string, message string, choices []Choice, defaultChoice int) (int, error)
}

// Choice is one option of a choice prompt. An ampersand in Label marks the hotkey.
type Choice struct {
	Label string
	Help  string
}

// DisplayLabel returns the label without its hotkey marker.
func (c Choice) DisplayLabel() string {
	out := make([]rune, 0, len(c.Label))
	for _, r := range c.Label {
		if r == '&' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// ProgressRecord is the host view of one progress activity.
type ProgressRecord struct {
	ActivityID      int
	Activity        string
	Operation       string
	PercentComplete int
	Completed       bool
}
