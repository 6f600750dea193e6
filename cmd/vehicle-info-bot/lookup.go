package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"vehicle-info-bot/internal/service"
)

func runLookup(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := a.lookup.Lookup(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Outcome == service.OutcomeNotFound {
		fmt.Fprintf(out, "no vehicle found for %s\n", result.Plate)
		return nil
	}
	fmt.Fprintf(out, "%s (%s)\n%s\n", result.Normalized, result.Resource, service.FormatText(result.Record))
	return nil
}
