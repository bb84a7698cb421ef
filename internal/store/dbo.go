package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/par2"
)

// jobDBO maps to the jobs table
type jobDBO struct {
	ID             string
	Name           string
	Filename       string
	Passwords      string
	Status         int
	Encrypted      int
	UnwantedExt    bool
	RatingFiltered int
	FailMsg        sql.NullString
	TotalBytes     int64
	BytesWritten   int64
	CreatedAt      int64
}

// Mapper: Domain Job to DBO
func (j *jobDBO) FromDomain(job *domain.Job) error {
	passwords := job.Passwords
	if passwords == nil {
		passwords = []string{}
	}
	pw, err := json.Marshal(passwords)
	if err != nil {
		return err
	}

	j.ID = job.ID
	j.Name = job.Name
	j.Filename = job.Filename
	j.Passwords = string(pw)
	j.Status = int(job.Status())
	j.Encrypted = int(job.Encrypted)
	j.UnwantedExt = job.UnwantedExt
	j.RatingFiltered = int(job.RatingFiltered)
	msg := job.FailMsg()
	j.FailMsg = sql.NullString{String: msg, Valid: msg != ""}
	j.TotalBytes = int64(job.TotalBytes)
	j.BytesWritten = int64(job.BytesWritten.Load())
	j.CreatedAt = job.CreatedAt.Unix()
	return nil
}

// Mapper: DBO to Domain Job. Files are attached by the caller.
func (j *jobDBO) ToDomain() (*domain.Job, error) {
	job := domain.NewJob(j.ID, j.Name)
	job.Filename = j.Filename
	if err := json.Unmarshal([]byte(j.Passwords), &job.Passwords); err != nil {
		return nil, err
	}
	if j.FailMsg.String != "" {
		job.Fail(j.FailMsg.String)
	}
	job.SetStatus(domain.JobStatus(j.Status))
	job.Encrypted = domain.EncryptionState(j.Encrypted)
	job.UnwantedExt = j.UnwantedExt
	job.RatingFiltered = domain.RatingCheck(j.RatingFiltered)
	job.BytesWritten.Store(uint64(j.BytesWritten))
	job.CreatedAt = time.Unix(j.CreatedAt, 0)
	job.Publish()
	return job, nil
}

// fileDBO maps to the job_files table
type fileDBO struct {
	Index    int
	Filename string
	Type     int
	Size     int64
	Path     sql.NullString
	MD5      []byte
}

func (f *fileDBO) FromDomain(index int, file *domain.FileItem) {
	f.Index = index
	f.Filename = file.Filename
	f.Type = int(file.Type)
	f.Size = file.Size
	f.Path = sql.NullString{String: file.Path, Valid: file.Path != ""}
	f.MD5 = nil
	if sum, ok := file.MD5Sum(); ok {
		f.MD5 = sum[:]
	}
}

func (f *fileDBO) ToDomain(table domain.Decodetable) *domain.FileItem {
	file := domain.NewFileItem(f.Filename, f.Size, table)
	file.Type = domain.FileType(f.Type)
	file.Path = f.Path.String
	if len(f.MD5) == len(par2.Hash{}) {
		var sum par2.Hash
		copy(sum[:], f.MD5)
		file.SetMD5Sum(sum)
	}
	return file
}
