package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/datallboy/gonzb-assembler/internal/domain"
)

// SaveRating inserts or replaces the rating of a job.
func (s *PersistentStore) SaveRating(ctx context.Context, r *domain.Rating) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ratings (job_id, avg_video, avg_audio, avg_spam_cnt, avg_spam_confirm,
		                                avg_encrypted_cnt, avg_encrypted_confirm, avg_vote_up, avg_vote_down)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.JobID, r.AvgVideo, r.AvgAudio, r.AvgSpamCnt, r.AvgSpamConfirm,
		r.AvgEncryptedCnt, r.AvgEncryptedConfirm, r.AvgVoteUp, r.AvgVoteDown)
	if err != nil {
		return fmt.Errorf("failed to save rating for %s: %w", r.JobID, err)
	}
	return nil
}

// RatingByJob returns the stored rating, or domain.ErrRatingNotFound.
func (s *PersistentStore) RatingByJob(ctx context.Context, jobID string) (*domain.Rating, error) {
	r := &domain.Rating{JobID: jobID}
	err := s.db.QueryRowContext(ctx, `
		SELECT avg_video, avg_audio, avg_spam_cnt, avg_spam_confirm,
		       avg_encrypted_cnt, avg_encrypted_confirm, avg_vote_up, avg_vote_down
		FROM ratings WHERE job_id = ?`, jobID).Scan(
		&r.AvgVideo, &r.AvgAudio, &r.AvgSpamCnt, &r.AvgSpamConfirm,
		&r.AvgEncryptedCnt, &r.AvgEncryptedConfirm, &r.AvgVoteUp, &r.AvgVoteDown)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to fetch rating: %w", err)
	}
	return r, nil
}
