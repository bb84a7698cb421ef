package controllers

import (
	"time"

	"github.com/datallboy/gonzb-assembler/internal/domain"
)

type JobResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Filename       string         `json:"filename"`
	Status         string         `json:"status"`
	Encrypted      int            `json:"encrypted"`
	UnwantedExt    bool           `json:"unwanted_ext"`
	RatingFiltered int            `json:"rating_filtered"`
	FailMsg        string         `json:"fail_msg,omitempty"`
	BytesWritten   uint64         `json:"bytes_written"`
	TotalBytes     uint64         `json:"total_bytes"`
	CreatedAt      time.Time      `json:"created_at"`
	Files          []FileResponse `json:"files,omitempty"`
}

type FileResponse struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	Path     string `json:"path,omitempty"`
	MD5      string `json:"md5,omitempty"`
}

type StatusResponse struct {
	Paused bool `json:"paused"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newJobResponse(job *domain.Job, withFiles bool) JobResponse {
	snap := job.Snapshot()
	res := JobResponse{
		ID:             job.ID,
		Name:           job.Name,
		Filename:       job.Filename,
		Status:         job.Status().String(),
		Encrypted:      int(snap.Encrypted),
		UnwantedExt:    snap.UnwantedExt,
		RatingFiltered: int(snap.RatingFiltered),
		FailMsg:        snap.FailMsg,
		BytesWritten:   job.BytesWritten.Load(),
		TotalBytes:     job.TotalBytes,
		CreatedAt:      job.CreatedAt,
	}
	if !withFiles {
		return res
	}
	for _, f := range snap.Files {
		fr := FileResponse{
			Filename: f.Filename,
			Type:     f.Type.String(),
			Size:     f.Size,
			Path:     f.Path,
		}
		if f.HasMD5 {
			fr.MD5 = f.MD5.String()
		}
		res.Files = append(res.Files, fr)
	}
	return res
}
