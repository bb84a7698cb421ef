package engine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/dustin/go-humanize"
)

// StartCLIProgress redraws a progress line for job every interval until ctx
// is done.
func StartCLIProgress(ctx context.Context, w io.Writer, job *domain.Job, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fmt.Fprint(w, "\r"+RenderProgress(job))
		case <-ctx.Done():
			return
		}
	}
}

// RenderProgress formats: [====>    ]  50.0% | 5.0 MB / 10 MB | status
func RenderProgress(job *domain.Job) string {
	current := job.BytesWritten.Load()
	total := job.TotalBytes

	var percent float64
	if total > 0 {
		percent = float64(current) / float64(total) * 100
		if percent > 100 {
			percent = 100
		}
	}

	const barWidth = 20
	completedWidth := int(percent / 100 * barWidth)
	bar := strings.Repeat("=", completedWidth)
	if completedWidth < barWidth {
		bar += ">" + strings.Repeat(" ", barWidth-completedWidth-1)
	}

	return fmt.Sprintf("[%s] %5.1f%% | %s / %s | %s",
		bar, percent, humanize.Bytes(current), humanize.Bytes(total), job.Status())
}
