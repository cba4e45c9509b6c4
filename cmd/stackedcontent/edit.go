package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-stacked-content/pkg/content"
	"github.com/goliatone/go-stacked-content/pkg/session"
	"github.com/goliatone/go-stacked-content/pkg/validation"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	actionAdd      = "Add"
	actionEdit     = "Edit"
	actionDelete   = "Delete"
	actionMove     = "Move"
	actionCopy     = "Copy"
	actionPaste    = "Paste"
	actionValidate = "Validate"
	actionSave     = "Save and quit"
	actionQuit     = "Quit"
)

func init() {
	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a stored value interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEdit,
	}
	cmd.Flags().StringP("out", "o", "", "Write the stored value to this file instead of stdout")
	cmd.Flags().StringSlice("allow", nil, "Element type aliases that may be added (default: all)")
	rootCmd.AddCommand(cmd)
}

type editor struct {
	app    *app
	s      *session.Session
	prompt prompter
	out    io.Writer
}

func runEdit(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("out")
	allow, _ := cmd.Flags().GetStringSlice("allow")

	var raw string
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		raw = string(data)
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	p := prompter{}
	s, err := a.module.NewSession(ctx, raw, allow, session.Dependencies{
		Clipboard: session.NewMemoryClipboard(),
		Confirmer: p,
		Picker:    p,
	})
	if err != nil {
		return err
	}

	e := &editor{app: a, s: s, prompt: p, out: cmd.OutOrStdout()}
	stored, save, err := e.loop(ctx)
	if err != nil || !save {
		return err
	}
	if outPath == "" {
		fmt.Fprintln(e.out, stored)
		return nil
	}
	return os.WriteFile(outPath, []byte(stored+"\n"), 0o644)
}

func (e *editor) loop(ctx context.Context) (string, bool, error) {
	for {
		e.list()
		actions := e.actions()
		idx, err := e.prompt.selectOne(ctx, "Action", actions)
		if err != nil {
			return "", false, err
		}
		if idx < 0 {
			continue
		}
		switch actions[idx] {
		case actionSave:
			stored, err := e.store(ctx)
			if err != nil {
				e.report(err)
				continue
			}
			e.s.MarkClean()
			return stored, true, nil
		case actionQuit:
			if e.s.Dirty() {
				ok, err := e.prompt.Confirm(ctx, "Discard unsaved changes?")
				if err != nil {
					return "", false, err
				}
				if !ok {
					continue
				}
			}
			return "", false, nil
		default:
			if err := e.run(ctx, actions[idx]); err != nil {
				if errors.Is(err, errAborted) {
					return "", false, err
				}
				e.report(err)
			}
		}
	}
}

func (e *editor) actions() []string {
	var out []string
	if e.s.CanAdd() {
		out = append(out, actionAdd)
	}
	if e.s.Len() > 0 {
		out = append(out, actionEdit)
	}
	if e.s.CanDelete() {
		out = append(out, actionDelete)
	}
	if e.s.Len() > 1 {
		out = append(out, actionMove)
	}
	if e.app.module.Config().Editor.EnableCopy {
		if e.s.Len() > 0 {
			out = append(out, actionCopy)
		}
		if e.s.CanAdd() {
			out = append(out, actionPaste)
		}
	}
	return append(out, actionValidate, actionSave, actionQuit)
}

func (e *editor) run(ctx context.Context, action string) error {
	switch action {
	case actionAdd:
		rec, err := e.s.Pick(ctx, -1)
		if err != nil || rec == nil {
			return err
		}
		return e.editOpen(ctx)
	case actionEdit:
		key, err := e.chooseRecord(ctx, "Record to edit")
		if err != nil {
			return err
		}
		if err := e.s.Edit(key); err != nil {
			return err
		}
		return e.editOpen(ctx)
	case actionDelete:
		key, err := e.chooseRecord(ctx, "Record to delete")
		if err != nil {
			return err
		}
		err = e.s.Delete(ctx, key)
		if errors.Is(err, session.ErrDeclined) {
			return nil
		}
		return err
	case actionMove:
		from, err := e.chooseIndex(ctx, "Record to move")
		if err != nil {
			return err
		}
		answer, err := e.prompt.input(ctx, "New position", strconv.Itoa(from+1), fmt.Sprintf("1 to %d", e.s.Len()))
		if err != nil {
			return err
		}
		to, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil {
			return fmt.Errorf("position must be a number: %w", err)
		}
		return e.s.Reorder(from, to-1)
	case actionCopy:
		key, err := e.chooseRecord(ctx, "Record to copy")
		if err != nil {
			return err
		}
		return e.s.Copy(ctx, key)
	case actionPaste:
		_, err := e.s.Paste(ctx, -1)
		return err
	case actionValidate:
		return e.validate(ctx)
	}
	return nil
}

// editOpen prompts for every field of the open record, then closes it.
func (e *editor) editOpen(ctx context.Context) error {
	defer e.s.Close()
	key, ok := e.s.OpenKey()
	if !ok {
		return nil
	}
	items := e.s.Items()
	idx := items.IndexOfKey(key.String())
	if idx < 0 {
		return session.ErrRecordNotFound
	}
	rec := items[idx]
	res, ok, err := e.app.module.Container().Resolver.Resolve(ctx, rec)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("element type %s is unknown", rec.TypeRef())
	}
	for _, field := range res.Schema.Fields() {
		current, _ := rec.Get(field.Alias)
		answer, err := e.prompt.input(ctx, field.Name, current.Text(), field.Description)
		if err != nil {
			return err
		}
		if answer == current.Text() {
			continue
		}
		value := content.String(answer)
		if answer == "" {
			value = content.Null()
		}
		if err := e.s.Set(field.Alias, value); err != nil {
			return err
		}
	}
	return nil
}

func (e *editor) chooseIndex(ctx context.Context, message string) (int, error) {
	items := e.s.Items()
	options := make([]string, len(items))
	for i, rec := range items {
		options[i] = fmt.Sprintf("%d. %s", i+1, rec.Name())
	}
	idx, err := e.prompt.selectOne(ctx, message, options)
	if err != nil {
		return -1, err
	}
	if idx < 0 {
		return -1, session.ErrRecordNotFound
	}
	return idx, nil
}

func (e *editor) chooseRecord(ctx context.Context, message string) (uuid.UUID, error) {
	idx, err := e.chooseIndex(ctx, message)
	if err != nil {
		return uuid.Nil, err
	}
	key, ok := e.s.Items()[idx].Key()
	if !ok {
		return uuid.Nil, session.ErrRecordNotFound
	}
	return key, nil
}

func (e *editor) validate(ctx context.Context) error {
	value, err := e.s.Value()
	if err != nil {
		return err
	}
	results, err := e.app.module.Validate(ctx, value)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(e.out, "ok")
		return nil
	}
	for _, r := range results {
		fmt.Fprintln(e.out, r.Message)
	}
	return nil
}

// store validates the session value and converts it for storage.
func (e *editor) store(ctx context.Context) (string, error) {
	value, err := e.s.Value()
	if err != nil {
		return "", err
	}
	results, err := e.app.module.Validate(ctx, value)
	if err != nil {
		return "", err
	}
	if err := validation.AsError(results); err != nil {
		for _, r := range results {
			fmt.Fprintln(e.out, r.Message)
		}
		return "", errInvalidValue
	}
	stored, ok, err := e.app.module.FromEditorModel(ctx, value)
	if err != nil || !ok {
		return "", err
	}
	return stored, nil
}

func (e *editor) list() {
	items := e.s.Items()
	if len(items) == 0 {
		fmt.Fprintln(e.out, "(no items)")
		return
	}
	for i, rec := range items {
		key, _ := rec.Key()
		line := fmt.Sprintf("%2d. %s", i+1, rec.Name())
		if icon := e.s.Icon(key); icon != "" {
			line += "  [" + icon + "]"
		}
		fmt.Fprintln(e.out, line)
	}
}

func (e *editor) report(err error) {
	fmt.Fprintf(e.out, "! %v\n", err)
}
