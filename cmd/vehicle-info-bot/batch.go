package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vehicle-info-bot/internal/batch"
	"vehicle-info-bot/internal/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func runBatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var uploader *storage.R2Client
	if batchUpload {
		uploader, err = storage.NewR2Client(a.cfg.Storage)
		if errors.Is(err, storage.ErrNotConfigured) {
			return fmt.Errorf("--upload needs R2_ENDPOINT, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY and R2_BUCKET: %w", err)
		}
		if err != nil {
			return err
		}
	}

	in, err := os.Open(batchInput)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	plates, err := batch.ReadPlates(in, batchSheet)
	in.Close()
	if err != nil {
		return err
	}
	a.log.Info().Str("input", batchInput).Int("plates", len(plates)).Msg("starting batch lookup")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows, err := batch.NewRunner(a.lookup, batchConcurrency, a.log).Run(ctx, plates)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := batch.WriteResults(rows, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(batchOutput, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(rows), batchOutput)

	if uploader != nil {
		key := fmt.Sprintf("batch/%s-%s", time.Now().UTC().Format("20060102T150405Z"), filepath.Base(batchOutput))
		url, err := uploader.Upload(ctx, key, buf.Bytes(), xlsxContentType)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded to %s\n", url)
	}
	return nil
}
