package platform

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/datallboy/gonzb-assembler/internal/domain"
)

var (
	reYenc     = regexp.MustCompile(`(?i)\s+yenc.*$`)
	reCounter  = regexp.MustCompile(`^\[\d+/\d+\]\s+`)
	reBadChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]`)
)

// SubjectFilename extracts a filename from a Usenet subject line.
func SubjectFilename(subject string) string {
	res := html.UnescapeString(subject)

	// Pattern A: contents inside double quotes
	firstQuote := strings.Index(res, "\"")
	lastQuote := strings.LastIndex(res, "\"")
	if firstQuote != -1 && lastQuote != -1 && firstQuote < lastQuote {
		res = res[firstQuote+1 : lastQuote]
	} else {
		// Pattern B: strip "yEnc (1/14)" and "[01/14]" decorations
		res = reYenc.ReplaceAllString(res, "")
		res = reCounter.ReplaceAllString(res, "")
	}

	return SanitizeFilename(res)
}

// SanitizeFilename replaces characters that are illegal on Windows, Linux or
// macOS and strips what Windows silently drops.
func SanitizeFilename(name string) string {
	name = reBadChars.ReplaceAllString(name, "_")
	name = strings.TrimSpace(name)
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return "unknown"
	}
	return name
}

// UniquePath returns path if it is free, otherwise the first free
// "name.N.ext" next to it.
func UniquePath(path string) string {
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d%s", base, n, ext)
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// MoveFile renames source to dest, falling back to a copy when they live on
// different filesystems.
func MoveFile(source, dest string) error {
	if err := os.Rename(source, dest); err == nil {
		return nil
	}
	return moveCrossDevice(source, dest)
}

func moveCrossDevice(sourcePath, destPath string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	tempDest := filepath.Join(filepath.Dir(destPath), "."+filepath.Base(destPath)+".tmp")
	dst, err := os.Create(tempDest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tempDest)
		return err
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		os.Remove(tempDest)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(tempDest)
		return err
	}

	if err := os.Rename(tempDest, destPath); err != nil {
		os.Remove(tempDest)
		return err
	}

	// Remove the original only after the copy is in place
	src.Close()
	return os.Remove(sourcePath)
}

// SetPermissions applies perm to path. A zero perm leaves the file alone.
func SetPermissions(path string, perm os.FileMode) error {
	if perm == 0 {
		return nil
	}
	return os.Chmod(path, perm)
}

var winDevices = map[string]struct{}{
	"con": {}, "prn": {}, "aux": {}, "nul": {}, "clock$": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {}, "com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {}, "lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// HasWinDevice reports whether any path element is a reserved Windows device
// name ("con", "nul.txt", ...). Opening such paths can hang archive tools.
func HasWinDevice(path string) bool {
	path = strings.ReplaceAll(path, "\\", "/")
	for _, part := range strings.Split(path, "/") {
		part = strings.ToLower(part)
		if dot := strings.Index(part, "."); dot >= 0 {
			part = part[:dot]
		}
		if _, ok := winDevices[strings.TrimSpace(part)]; ok {
			return true
		}
	}
	return false
}

// PathBuilder places assembled files in a per-job directory below Base.
type PathBuilder struct {
	Base string
}

// Path returns the destination for name within the job's directory, creating
// the directory when needed. It returns "" if the directory cannot be made.
func (b PathBuilder) Path(job *domain.Job, name string) string {
	dir := filepath.Join(b.Base, SanitizeFilename(job.Name))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ""
	}
	return filepath.Join(dir, name)
}
