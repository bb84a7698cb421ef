package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
)

type pauseRecorder struct {
	calls []bool
}

func (p *pauseRecorder) Pause(save bool) { p.calls = append(p.calls, save) }

func TestCheckFreeSpace(t *testing.T) {
	tests := []struct {
		name    string
		minFree uint64
		free    uint64
		err     error
		paused  bool
	}{
		{"plenty", 100, 1000, nil, false},
		{"too little", 1000, 100, nil, true},
		{"disabled", 0, 0, nil, false},
		{"statfs error", 1000, 0, errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &pauseRecorder{}
			d := NewDiskChecker("/data", tt.minFree, p, logger.Discard())
			d.freeSpace = func(string) (uint64, error) { return tt.free, tt.err }

			d.CheckFreeSpace()

			if tt.paused {
				assert.Equal(t, []bool{false}, p.calls)
			} else {
				assert.Empty(t, p.calls)
			}
		})
	}
}
