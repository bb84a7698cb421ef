package domain

import (
	"sort"
	"strings"

	"github.com/datallboy/gonzb-assembler/internal/par2"
)

// ArticleRef identifies a decoded article in the article cache (the Usenet
// message-id).
type ArticleRef string

// Decodetable maps an article number to the article holding that part.
type Decodetable map[int]ArticleRef

// Numbers returns the article numbers in ascending order.
func (d Decodetable) Numbers() []int {
	nums := make([]int, 0, len(d))
	for n := range d {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

type FileType int

const (
	FileTypeData FileType = iota
	FileTypePar2
)

func (t FileType) String() string {
	if t == FileTypePar2 {
		return "par2"
	}
	return "data"
}

// FileItem is a single file within a Job.
type FileItem struct {
	Filename    string
	Type        FileType
	SetName     string
	Size        int64 // expected size from the NZB
	Decodetable Decodetable
	ExtraPars   []*FileItem

	// Path is where the file ended up after assembly.
	Path string

	job       *Job
	md5sum    par2.Hash
	hasMD5sum bool
}

// NewFileItem builds a file and derives its type and set name from the
// filename.
func NewFileItem(filename string, size int64, table Decodetable) *FileItem {
	f := &FileItem{
		Filename:    filename,
		Size:        size,
		Decodetable: table,
	}
	if strings.HasSuffix(strings.ToLower(filename), ".par2") {
		f.Type = FileTypePar2
	}
	f.SetName = SetName(filename)
	return f
}

func (f *FileItem) IsPar2() bool { return f.Type == FileTypePar2 }

func (f *FileItem) Job() *Job { return f.job }

// SetMD5Sum stores the digest of the assembled file. Only the first call
// has an effect.
func (f *FileItem) SetMD5Sum(sum par2.Hash) {
	if f.hasMD5sum {
		return
	}
	f.md5sum = sum
	f.hasMD5sum = true
}

func (f *FileItem) MD5Sum() (par2.Hash, bool) {
	return f.md5sum, f.hasMD5sum
}

func (f *FileItem) snapshot() FileSnapshot {
	return FileSnapshot{
		Filename: f.Filename,
		Type:     f.Type,
		Size:     f.Size,
		Path:     f.Path,
		MD5:      f.md5sum,
		HasMD5:   f.hasMD5sum,
	}
}

// SetName strips volume and parity suffixes so that "show.part01.rar",
// "show.vol03+04.par2" and "show.par2" all map to "show".
func SetName(filename string) string {
	name := strings.ToLower(filename)
	for {
		trimmed := trimSetSuffix(name)
		if trimmed == name {
			return name
		}
		name = trimmed
	}
}

func trimSetSuffix(name string) string {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 {
		return name
	}
	ext := name[dot+1:]
	switch {
	case ext == "par2", ext == "rar", ext == "7z", ext == "zip", ext == "sfv":
		return name[:dot]
	case strings.HasPrefix(ext, "vol") && strings.ContainsAny(ext, "+-"):
		return name[:dot]
	case strings.HasPrefix(ext, "part") && isDigits(ext[4:]):
		return name[:dot]
	case len(ext) == 3 && ext[0] == 'r' && isDigits(ext[1:]):
		return name[:dot]
	case len(ext) == 3 && isDigits(ext):
		return name[:dot]
	}
	return name
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
