// Package prompt provides the interactive decisions used by the install
// workflow.
package prompt

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Option is one selectable value with its display label.
type Option struct {
	Label string
	Value string
}

// Decider answers the questions asked during an install.
type Decider interface {
	Confirm(title string) (bool, error)
	SelectOne(title string, options []Option) (string, error)
	SelectMany(title string, options []Option, defaults []string) ([]string, error)
	ConfirmOverwrite(path string) (bool, error)
}

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Huh asks questions on the terminal with charmbracelet/huh forms.
type Huh struct{}

func (Huh) Confirm(title string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false, cancelled(err)
	}
	return confirmed, nil
}

func (Huh) SelectOne(title string, options []Option) (string, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(toHuh(options, nil)...).
				Value(&value),
		),
	)
	if err := form.Run(); err != nil {
		return "", cancelled(err)
	}
	return value, nil
}

func (Huh) SelectMany(title string, options []Option, defaults []string) ([]string, error) {
	values := append([]string(nil), defaults...)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title(title).
				Options(toHuh(options, defaults)...).
				Value(&values),
		),
	)
	if err := form.Run(); err != nil {
		return nil, cancelled(err)
	}
	return values, nil
}

func (h Huh) ConfirmOverwrite(path string) (bool, error) {
	return h.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path))
}

func toHuh(options []Option, selected []string) []huh.Option[string] {
	out := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opt := huh.NewOption(o.Label, o.Value)
		for _, s := range selected {
			if s == o.Value {
				opt = opt.Selected(true)
				break
			}
		}
		out = append(out, opt)
	}
	return out
}

func cancelled(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %v", ErrCancelled, err)
}

// Scripted answers from fixed values. It backs non-interactive runs and
// tests.
type Scripted struct {
	// ConfirmAnswer is returned by Confirm and ConfirmOverwrite.
	ConfirmAnswer bool
	// One is returned by SelectOne. Empty picks the first option.
	One string
	// Many is returned by SelectMany. Nil keeps the defaults.
	Many []string
	// Err, when set, is returned by every question.
	Err error

	// Asked records every title in order.
	Asked []string
}

func (s *Scripted) Confirm(title string) (bool, error) {
	s.Asked = append(s.Asked, title)
	if s.Err != nil {
		return false, s.Err
	}
	return s.ConfirmAnswer, nil
}

func (s *Scripted) SelectOne(title string, options []Option) (string, error) {
	s.Asked = append(s.Asked, title)
	if s.Err != nil {
		return "", s.Err
	}
	if s.One != "" {
		return s.One, nil
	}
	if len(options) == 0 {
		return "", nil
	}
	return options[0].Value, nil
}

func (s *Scripted) SelectMany(title string, options []Option, defaults []string) ([]string, error) {
	s.Asked = append(s.Asked, title)
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Many != nil {
		return s.Many, nil
	}
	return defaults, nil
}

func (s *Scripted) ConfirmOverwrite(path string) (bool, error) {
	return s.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path))
}
