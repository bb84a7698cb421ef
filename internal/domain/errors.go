package domain

import "errors"

// ErrJobNotFound indicates the job is neither queued nor persisted
var ErrJobNotFound = errors.New("job not found")

// ErrRatingNotFound indicates no rating record exists for a job
var ErrRatingNotFound = errors.New("rating not found")
