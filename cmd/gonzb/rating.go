package main

import (
	"context"
	"fmt"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/store"
	"github.com/datallboy/gonzb-assembler/internal/store/postgres"
	"github.com/spf13/cobra"
)

type ratingWriter interface {
	SaveRating(ctx context.Context, r *domain.Rating) error
	RatingByJob(ctx context.Context, jobID string) (*domain.Rating, error)
}

func buildRatingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rating",
		Short: "Manage indexer ratings used by the rating filter",
	}
	cmd.AddCommand(buildRatingSetCommand())
	cmd.AddCommand(buildRatingGetCommand())
	return cmd
}

// withRatings opens the configured rating store: PostgreSQL when
// rating.dsn is set, the local database otherwise.
func withRatings(ctx context.Context, fn func(ratingWriter) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Rating.DSN != "" {
		rs, err := postgres.New(ctx, cfg.Rating.DSN)
		if err != nil {
			return err
		}
		defer rs.Close()
		if err := rs.EnsureSchema(ctx); err != nil {
			return err
		}
		return fn(rs)
	}

	st, err := store.NewPersistentStore(cfg.Store.SQLitePath)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func buildRatingSetCommand() *cobra.Command {
	var r domain.Rating

	cmd := &cobra.Command{
		Use:   "set JOB_ID",
		Short: "Store the averaged rating of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r.JobID = args[0]
			return withRatings(cmd.Context(), func(w ratingWriter) error {
				if err := w.SaveRating(cmd.Context(), &r); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rating stored for %s\n", r.JobID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.IntVar(&r.AvgVideo, "video", 0, "average video score")
	f.IntVar(&r.AvgAudio, "audio", 0, "average audio score")
	f.IntVar(&r.AvgSpamCnt, "spam", 0, "spam reports")
	f.BoolVar(&r.AvgSpamConfirm, "spam-confirm", false, "spam confirmed by a moderator")
	f.IntVar(&r.AvgEncryptedCnt, "encrypted", 0, "encrypted reports")
	f.BoolVar(&r.AvgEncryptedConfirm, "encrypted-confirm", false, "encryption confirmed by a moderator")
	f.IntVar(&r.AvgVoteUp, "up", 0, "up votes")
	f.IntVar(&r.AvgVoteDown, "down", 0, "down votes")
	return cmd
}

func buildRatingGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get JOB_ID",
		Short: "Show the stored rating of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRatings(cmd.Context(), func(w ratingWriter) error {
				r, err := w.RatingByJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"video=%d audio=%d spam=%d spam_confirm=%t encrypted=%d encrypted_confirm=%t up=%d down=%d\n",
					r.AvgVideo, r.AvgAudio, r.AvgSpamCnt, r.AvgSpamConfirm,
					r.AvgEncryptedCnt, r.AvgEncryptedConfirm, r.AvgVoteUp, r.AvgVoteDown)
				return nil
			})
		},
	}
}
