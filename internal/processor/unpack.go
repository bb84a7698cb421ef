package processor

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
)

var reVolume = regexp.MustCompile(`\.part(\d+)\.rar$`)

// Unpacker records RAR volumes as soon as they are assembled so that an
// extractor can start on a set before the job finishes.
type Unpacker struct {
	mu      sync.Mutex
	volumes map[string]map[string][]string // job id -> set -> paths
	log     *logger.Logger
}

func NewUnpacker(log *logger.Logger) *Unpacker {
	return &Unpacker{
		volumes: make(map[string]map[string][]string),
		log:     log.Named("unpack"),
	}
}

// Add registers file as an on-disk volume of its set.
func (u *Unpacker) Add(job *domain.Job, file *domain.FileItem) {
	if file.Path == "" {
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	bySet, ok := u.volumes[job.ID]
	if !ok {
		bySet = make(map[string][]string)
		u.volumes[job.ID] = bySet
	}
	bySet[file.SetName] = append(bySet[file.SetName], file.Path)
	u.log.Debug("Volume %s of set %s ready", filepath.Base(file.Path), file.SetName)
}

// Volumes returns the registered volumes of a set in volume order.
func (u *Unpacker) Volumes(jobID, set string) []string {
	u.mu.Lock()
	out := append([]string(nil), u.volumes[jobID][set]...)
	u.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return volumeNumber(out[i]) < volumeNumber(out[j])
	})
	return out
}

// FirstVolume returns the volume an extractor has to be pointed at, if it
// has been assembled.
func (u *Unpacker) FirstVolume(jobID, set string) (string, bool) {
	for _, p := range u.Volumes(jobID, set) {
		lower := strings.ToLower(filepath.Base(p))
		if reVolume.MatchString(lower) {
			if volumeNumber(p) == 1 {
				return p, true
			}
			continue
		}
		// Old style naming: name.rar, name.r00, name.r01, ...
		if strings.HasSuffix(lower, ".rar") {
			return p, true
		}
	}
	return "", false
}

// FirstVolumes returns the first assembled volume of every set of a job,
// keyed by set name. Sets whose first volume is missing are left out.
func (u *Unpacker) FirstVolumes(jobID string) map[string]string {
	u.mu.Lock()
	sets := make([]string, 0, len(u.volumes[jobID]))
	for set := range u.volumes[jobID] {
		sets = append(sets, set)
	}
	u.mu.Unlock()

	out := make(map[string]string, len(sets))
	for _, set := range sets {
		if p, ok := u.FirstVolume(jobID, set); ok {
			out[set] = p
		}
	}
	return out
}

// Forget drops everything recorded for a job.
func (u *Unpacker) Forget(jobID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.volumes, jobID)
}

// volumeNumber returns N for "name.partN.rar", 0 otherwise.
func volumeNumber(path string) int {
	m := reVolume.FindStringSubmatch(strings.ToLower(filepath.Base(path)))
	if m == nil {
		return 0
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	return n
}
