package domain

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/datallboy/gonzb-assembler/internal/par2"
)

type JobStatus int32

const (
	StatusQueued JobStatus = iota
	StatusPaused
	StatusProcessing // Post-processing (quick check / repair)
	StatusCompleted
	StatusFailed
)

func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusPaused:
		return "paused"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EncryptionState records what is known about archive encryption for a job.
// Once it leaves EncryptionUnknown it never goes back.
type EncryptionState int

const (
	EncryptionPasswordRecovered EncryptionState = -1
	EncryptionUnknown           EncryptionState = 0
	EncryptionConfirmed         EncryptionState = 1
)

// RatingCheck records how far the rating filter got for a job.
type RatingCheck int

const (
	RatingUnchecked    RatingCheck = 0
	RatingPauseChecked RatingCheck = 1
	RatingAbortChecked RatingCheck = 2
)

// Job is one NZB worth of files moving through assembly.
//
// The latch fields (Encrypted, UnwantedExt, RatingFiltered, PartTable,
// MD5Packs, MD5of16k) and the file results are only touched by the goroutine
// that owns the job: the assembler, then post-processing. Other goroutines
// read them through Snapshot. Status and the deletion flag may be touched
// from anywhere.
type Job struct {
	ID        string
	Name      string // display name
	Filename  string // NZB filename, used for keyword filtering
	Passwords []string
	CreatedAt time.Time

	Encrypted      EncryptionState
	UnwantedExt    bool
	RatingFiltered RatingCheck

	PartTable map[string]*FileItem
	MD5Packs  map[string]par2.Table
	MD5of16k  par2.Table16k

	BytesWritten atomic.Uint64
	TotalBytes   uint64

	status  atomic.Int32
	deleted atomic.Bool

	mu       sync.Mutex
	files    []*FileItem
	finished map[string]struct{}
	failMsg  string
	view     Snapshot
}

// Snapshot is the state of a job as last published by its owner.
type Snapshot struct {
	Encrypted      EncryptionState
	UnwantedExt    bool
	RatingFiltered RatingCheck
	FailMsg        string
	Files          []FileSnapshot
}

type FileSnapshot struct {
	Filename string
	Type     FileType
	Size     int64
	Path     string
	MD5      par2.Hash
	HasMD5   bool
}

func NewJob(id, name string) *Job {
	return &Job{
		ID:        id,
		Name:      name,
		Filename:  name,
		CreatedAt: time.Now(),
		PartTable: make(map[string]*FileItem),
		MD5Packs:  make(map[string]par2.Table),
		MD5of16k:  make(par2.Table16k),
		finished:  make(map[string]struct{}),
	}
}

// AddFile attaches f to the job. The first PAR2 file seen for a set becomes
// its primary until a parsed one replaces it.
func (j *Job) AddFile(f *FileItem) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f.job = j
	j.files = append(j.files, f)
	j.view.Files = append(j.view.Files, f.snapshot())
	j.TotalBytes += uint64(f.Size)

	if f.IsPar2() && f.SetName != "" {
		if primary, ok := j.PartTable[f.SetName]; !ok {
			j.PartTable[f.SetName] = f
		} else if primary != f {
			primary.ExtraPars = append(primary.ExtraPars, f)
		}
	}
}

func (j *Job) Files() []*FileItem {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*FileItem, len(j.files))
	copy(out, j.files)
	return out
}

// CheckForDupe reports whether a file with the same name was already
// assembled for this job, and records f as finished either way.
func (j *Job) CheckForDupe(f *FileItem) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.finished[f.Filename]; ok {
		return true
	}
	j.finished[f.Filename] = struct{}{}
	return false
}

func (j *Job) Status() JobStatus {
	return JobStatus(j.status.Load())
}

func (j *Job) SetStatus(s JobStatus) {
	j.status.Store(int32(s))
}

// Pause moves a queued job to paused. Failed or completed jobs stay put.
func (j *Job) Pause() {
	j.status.CompareAndSwap(int32(StatusQueued), int32(StatusPaused))
}

func (j *Job) Resume() {
	j.status.CompareAndSwap(int32(StatusPaused), int32(StatusQueued))
}

// Fail marks the job failed with msg as the user facing reason.
func (j *Job) Fail(msg string) {
	j.mu.Lock()
	j.failMsg = msg
	j.view.FailMsg = msg
	j.mu.Unlock()
	j.SetStatus(StatusFailed)
}

func (j *Job) FailMsg() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failMsg
}

// Publish copies the latch fields and file results into the snapshot. Only
// the goroutine owning the job may call it.
func (j *Job) Publish() {
	j.mu.Lock()
	defer j.mu.Unlock()

	files := make([]FileSnapshot, len(j.files))
	for i, f := range j.files {
		files[i] = f.snapshot()
	}
	j.view = Snapshot{
		Encrypted:      j.Encrypted,
		UnwantedExt:    j.UnwantedExt,
		RatingFiltered: j.RatingFiltered,
		FailMsg:        j.failMsg,
		Files:          files,
	}
}

// Snapshot returns the last published state. Safe from any goroutine.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	v := j.view
	v.Files = slices.Clone(v.Files)
	return v
}

// MarkDeleted flags the job as removed by the user. Writers poll IsDeleted
// between articles.
func (j *Job) MarkDeleted() {
	j.deleted.Store(true)
}

func (j *Job) IsDeleted() bool {
	return j.deleted.Load()
}
