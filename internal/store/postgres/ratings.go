// Package postgres reads indexer ratings from a shared PostgreSQL database.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS ratings (
    job_id                TEXT PRIMARY KEY,
    avg_video             INTEGER NOT NULL DEFAULT 0,
    avg_audio             INTEGER NOT NULL DEFAULT 0,
    avg_spam_cnt          INTEGER NOT NULL DEFAULT 0,
    avg_spam_confirm      BOOLEAN NOT NULL DEFAULT FALSE,
    avg_encrypted_cnt     INTEGER NOT NULL DEFAULT 0,
    avg_encrypted_confirm BOOLEAN NOT NULL DEFAULT FALSE,
    avg_vote_up           INTEGER NOT NULL DEFAULT 0,
    avg_vote_down         INTEGER NOT NULL DEFAULT 0
)`

type RatingStore struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*RatingStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &RatingStore{pool: pool}, nil
}

func (s *RatingStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *RatingStore) RatingByJob(ctx context.Context, jobID string) (*domain.Rating, error) {
	r := &domain.Rating{JobID: jobID}
	err := s.pool.QueryRow(ctx, `
		SELECT avg_video, avg_audio, avg_spam_cnt, avg_spam_confirm,
		       avg_encrypted_cnt, avg_encrypted_confirm, avg_vote_up, avg_vote_down
		FROM ratings WHERE job_id = $1`, jobID).Scan(
		&r.AvgVideo, &r.AvgAudio, &r.AvgSpamCnt, &r.AvgSpamConfirm,
		&r.AvgEncryptedCnt, &r.AvgEncryptedConfirm, &r.AvgVoteUp, &r.AvgVoteDown)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRatingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rating: %w", err)
	}
	return r, nil
}

func (s *RatingStore) SaveRating(ctx context.Context, r *domain.Rating) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ratings (job_id, avg_video, avg_audio, avg_spam_cnt, avg_spam_confirm,
		                     avg_encrypted_cnt, avg_encrypted_confirm, avg_vote_up, avg_vote_down)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id) DO UPDATE SET
			avg_video = EXCLUDED.avg_video,
			avg_audio = EXCLUDED.avg_audio,
			avg_spam_cnt = EXCLUDED.avg_spam_cnt,
			avg_spam_confirm = EXCLUDED.avg_spam_confirm,
			avg_encrypted_cnt = EXCLUDED.avg_encrypted_cnt,
			avg_encrypted_confirm = EXCLUDED.avg_encrypted_confirm,
			avg_vote_up = EXCLUDED.avg_vote_up,
			avg_vote_down = EXCLUDED.avg_vote_down`,
		r.JobID, r.AvgVideo, r.AvgAudio, r.AvgSpamCnt, r.AvgSpamConfirm,
		r.AvgEncryptedCnt, r.AvgEncryptedConfirm, r.AvgVoteUp, r.AvgVoteDown)
	return err
}

func (s *RatingStore) Close() {
	s.pool.Close()
}
