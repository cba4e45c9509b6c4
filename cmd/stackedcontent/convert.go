package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-stacked-content/pkg/pipeline"
	"github.com/goliatone/go-stacked-content/pkg/validation"
	"github.com/spf13/cobra"
)

var errInvalidValue = errors.New("value is invalid")

func init() {
	convert := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a stored value for display, the editor or storage",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConvert,
	}
	convert.Flags().StringP("direction", "D", "display", "Direction: display, editor or storage")
	rootCmd.AddCommand(convert)

	validate := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a stored value against its element types",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidate,
	}
	rootCmd.AddCommand(validate)
}

func runConvert(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("direction")
	dir, err := pipeline.ParseDirection(name)
	if err != nil {
		return err
	}
	raw, err := readValue(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	switch dir {
	case pipeline.ToDisplayString:
		text, err := a.module.ToDisplayString(ctx, raw)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
	case pipeline.ToEditorModel:
		value, err := a.module.ToEditorModel(ctx, raw)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	default:
		stored, ok, err := a.module.FromEditorModel(ctx, raw)
		if err != nil {
			return err
		}
		if !ok {
			a.logger.Info("nothing to store, the value is empty")
			return nil
		}
		fmt.Fprintln(out, stored)
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := readValue(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.module.Validate(ctx, raw)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintln(out, r.Message)
	}
	if err := validation.AsError(results); err != nil {
		return fmt.Errorf("%w: %d problem(s)", errInvalidValue, len(results))
	}
	fmt.Fprintln(out, "ok")
	return nil
}
