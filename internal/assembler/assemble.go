package assembler

import (
	"bufio"
	"crypto/md5"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/par2"
	"github.com/datallboy/gonzb-assembler/internal/platform"
)

// assemble appends the file's articles to path in article order and stores
// the MD5 of what was written. It returns the path actually used.
func (a *Assembler) assemble(job *domain.Job, file *domain.FileItem, path string, dupe bool) (string, error) {
	if _, err := os.Lstat(path); err == nil {
		unique := platform.UniquePath(path)
		if dupe {
			path = unique
		} else if err := platform.MoveFile(path, unique); err != nil {
			// The first file to finish keeps the canonical name
			return path, &DiskError{Op: "rename", Path: path, Err: err}
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return path, &DiskError{Op: "open", Path: path, Err: err}
	}

	w := bufio.NewWriter(f)
	hash := md5.New()
	var written uint64

	for _, num := range file.Decodetable.Numbers() {
		if job.IsDeleted() {
			break
		}

		// Let the decoders fill the cache
		runtime.Gosched()

		ref := file.Decodetable[num]
		data, ok := a.deps.Cache.LoadArticle(ref)
		if !ok {
			a.log.Info("%s missing", ref)
			a.metrics.RecordMissingArticle()
			continue
		}

		if _, err := w.Write(data); err != nil {
			f.Close()
			return path, &DiskError{Op: "write", Path: path, Err: err}
		}
		hash.Write(data)
		written += uint64(len(data))
		job.BytesWritten.Add(uint64(len(data)))
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return path, &DiskError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return path, &DiskError{Op: "close", Path: path, Err: err}
	}

	if err := platform.SetPermissions(path, a.cfg.FilePerm); err != nil {
		a.log.Warn("Cannot change permissions of %s: %v", path, err)
	}

	var sum par2.Hash
	copy(sum[:], hash.Sum(nil))
	file.SetMD5Sum(sum)

	a.metrics.RecordFileAssembled(written)
	a.log.Debug("Assembled %s (%s)", path, humanize.Bytes(written))
	return path, nil
}
