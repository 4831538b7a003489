package cli

import (
	"encoding/csv"
	"fmt"
	"os"

	"elearn-platform/internal/checkpoint"
	"elearn-platform/internal/config"
	pgstore "elearn-platform/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewImportCmd loads an authored question table into the checkpoint store.
// The CSV columns match the editable table: Time, Question, Option A,
// Option B, Option C, Correct Answer. Blank rows are dropped and the whole
// set is validated before anything is written.
func NewImportCmd(configPath *string) *cobra.Command {
	var file, videoID string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a checkpoint question table for a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			reader := csv.NewReader(f)
			reader.FieldsPerRecord = -1
			rows, err := reader.ReadAll()
			if err != nil {
				return fmt.Errorf("read table: %w", err)
			}

			entries := checkpoint.FromTable(rows)
			if len(entries) == 0 {
				return fmt.Errorf("no usable rows in %s", file)
			}
			// Reject invalid authoring before it reaches the store.
			set, err := checkpoint.Build(entries)
			if err != nil {
				return fmt.Errorf("invalid question table: %w", err)
			}

			ctx := cmd.Context()
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.NewCheckpointStore(pool).SaveCheckpoints(ctx, videoID, entries); err != nil {
				return err
			}
			logger := newLogger()
			logger.Info().Str("video", videoID).Int("checkpoints", set.Len()).
				Msg("checkpoint table imported")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the question table CSV")
	cmd.Flags().StringVar(&videoID, "video", "", "video ID the questions belong to")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}
