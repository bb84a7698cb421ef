package inspector

import (
	"bufio"
	"os"
	"strings"

	"github.com/datallboy/gonzb-assembler/internal/domain"
)

// passwords returns the job's own passwords followed by the lines of the
// configured password file, without duplicates.
func (i *Inspector) passwords(job *domain.Job) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(pw string) {
		if _, ok := seen[pw]; ok || pw == "" {
			return
		}
		seen[pw] = struct{}{}
		out = append(out, pw)
	}

	for _, pw := range job.Passwords {
		add(pw)
	}

	if i.cfg.PasswordFile == "" {
		return out
	}
	f, err := os.Open(i.cfg.PasswordFile)
	if err != nil {
		i.log.Warn("Cannot read password file %s: %v", i.cfg.PasswordFile, err)
		return out
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		add(strings.TrimSpace(sc.Text()))
	}
	return out
}
