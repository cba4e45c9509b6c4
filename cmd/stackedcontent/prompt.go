package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/goliatone/go-stacked-content/pkg/session"
)

// errAborted is returned when the user interrupts a prompt.
var errAborted = errors.New("aborted")

const pickerCancel = "(cancel)"

// prompter asks questions on the terminal through survey.
type prompter struct{}

var (
	_ session.Confirmer = prompter{}
	_ session.Picker    = prompter{}
)

func (prompter) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (p prompter) Pick(ctx context.Context, choices []session.Choice) (session.Choice, bool, error) {
	options := make([]string, 0, len(choices)+1)
	for _, c := range choices {
		options = append(options, choiceLabel(c))
	}
	options = append(options, pickerCancel)
	idx, err := p.selectOne(ctx, "Element type", options)
	if err != nil {
		return session.Choice{}, false, err
	}
	if idx < 0 || idx >= len(choices) {
		return session.Choice{}, false, nil
	}
	return choices[idx], true, nil
}

func (prompter) selectOne(ctx context.Context, message string, options []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	var out string
	prompt := &survey.Select{Message: message, Options: options, PageSize: 12}
	if err := survey.AskOne(prompt, &out); err != nil {
		return -1, translateSurveyErr(err)
	}
	for i, option := range options {
		if option == out {
			return i, nil
		}
	}
	return -1, nil
}

func (prompter) input(ctx context.Context, message, def, help string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{Message: message, Default: def, Help: help}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func choiceLabel(c session.Choice) string {
	if c.Name == "" {
		return c.Alias
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.Alias)
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
