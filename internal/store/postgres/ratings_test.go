package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingStore(t *testing.T) {
	dsn := os.Getenv("GONZB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("GONZB_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))

	id := ksuid.New().String()
	_, err = s.RatingByJob(ctx, id)
	assert.ErrorIs(t, err, domain.ErrRatingNotFound)

	r := &domain.Rating{JobID: id, AvgVideo: 2, AvgSpamCnt: 1, AvgEncryptedConfirm: true}
	require.NoError(t, s.SaveRating(ctx, r))

	got, err := s.RatingByJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestNewRejectsBadDSN(t *testing.T) {
	_, err := New(context.Background(), "::not a dsn::")
	assert.Error(t, err)
}
