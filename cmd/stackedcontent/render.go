package main

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-stacked-content/pkg/render"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a stored value through its partial templates",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRender,
	}
	cmd.Flags().StringP("partials", "p", "", "Partial directory, overrides rendering.path_to_partials")
	cmd.Flags().String("view-data", "", "JSON object merged into every template context")
	rootCmd.AddCommand(cmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	partials, _ := cmd.Flags().GetString("partials")
	viewDataRaw, _ := cmd.Flags().GetString("view-data")

	var viewData map[string]any
	if viewDataRaw != "" {
		if err := json.Unmarshal([]byte(viewDataRaw), &viewData); err != nil {
			return fmt.Errorf("parse view data: %w", err)
		}
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

	html, err := a.module.Render(ctx, render.Request{
		Value:          raw,
		PathToPartials: partials,
		ViewData:       viewData,
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), html)
	return nil
}
