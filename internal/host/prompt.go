package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/conn-castle/package-console/internal/messages"
)

// ErrPromptAborted is returned when the user aborts an interactive prompt.
var ErrPromptAborted = errors.New("prompt aborted")

var runFormFunc = func(form *huh.Form) error { return form.Run() }

// PromptForChoice asks the user to pick one of choices and returns its index.
// Interactive terminals get a select list; other streams get a numbered prompt.
func (ui *TerminalUI) PromptForChoice(caption string, message string, choices []Choice, defaultChoice int) (int, error) {
	if len(choices) == 0 {
		return 0, errors.New(messages.PromptNoChoices)
	}
	if defaultChoice < 0 || defaultChoice >= len(choices) {
		return 0, fmt.Errorf(messages.PromptDefaultRange, defaultChoice)
	}
	ui.clearProgress()
	if ui.interactive() {
		return ui.selectChoice(caption, message, choices, defaultChoice)
	}
	return promptChoiceLine(ui.in, ui.out, caption, message, choices, defaultChoice)
}

// choiceKeyMap keeps the default keymap but lets Esc abort alongside Ctrl+C.
func choiceKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"))
	km.Select.Filter.SetEnabled(false)
	km.Select.SetFilter.SetEnabled(false)
	km.Select.ClearFilter.SetEnabled(false)
	return km
}

func (ui *TerminalUI) selectChoice(caption string, message string, choices []Choice, defaultChoice int) (int, error) {
	opts := make([]huh.Option[int], len(choices))
	for i, c := range choices {
		label := c.DisplayLabel()
		if c.Help != "" {
			label += " - " + c.Help
		}
		opts[i] = huh.NewOption(label, i)
	}
	selected := defaultChoice
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(caption).
				Description(message).
				Options(opts...).
				Value(&selected),
		),
	)
	form.WithKeyMap(choiceKeyMap())
	form.WithProgramOptions(
		tea.WithOutput(ui.err),
		tea.WithFilter(func(_ tea.Model, msg tea.Msg) tea.Msg {
			if _, ok := msg.(tea.InterruptMsg); ok {
				return tea.QuitMsg{}
			}
			return msg
		}),
	)
	if err := runFormFunc(form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return 0, ErrPromptAborted
		}
		return 0, err
	}
	return selected, nil
}

// promptChoiceLine renders a numbered prompt and reads a 1-based answer.
// An empty answer selects defaultChoice; EOF without an answer does too.
func promptChoiceLine(in io.Reader, out io.Writer, caption string, message string, choices []Choice, defaultChoice int) (int, error) {
	if in == nil {
		in = os.Stdin
	}
	reader := bufio.NewReader(in)
	if _, err := fmt.Fprintln(out, caption); err != nil {
		return 0, err
	}
	if _, err := fmt.Fprintln(out, message); err != nil {
		return 0, err
	}
	for {
		for i, c := range choices {
			if _, err := fmt.Fprintf(out, messages.PromptChoiceLineFmt, i+1, c.DisplayLabel()); err != nil {
				return 0, err
			}
		}
		if _, err := fmt.Fprintf(out, messages.PromptChoiceInputFmt, caption, defaultChoice+1); err != nil {
			return 0, err
		}
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		response := strings.TrimSpace(line)
		if response == "" {
			return defaultChoice, nil
		}
		if idx, ok := matchChoice(response, choices); ok {
			return idx, nil
		}
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf(messages.PromptInvalidChoice, response)
		}
		if _, err := fmt.Fprintf(out, messages.PromptRetryChoiceFmt+"\n", len(choices)); err != nil {
			return 0, err
		}
	}
}

// matchChoice accepts a 1-based index or a full label, ignoring case.
func matchChoice(response string, choices []Choice) (int, bool) {
	if n, err := strconv.Atoi(response); err == nil {
		if n >= 1 && n <= len(choices) {
			return n - 1, true
		}
		return 0, false
	}
	for i, c := range choices {
		if strings.EqualFold(response, c.DisplayLabel()) {
			return i, true
		}
	}
	return 0, false
}
