package nzb

import (
	"path/filepath"
	"strings"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/platform"
	"github.com/segmentio/ksuid"
)

// BuildJob turns a parsed NZB into a job. filename is the NZB's own name;
// a "{{password}}" suffix in it is taken as a job password, as are
// <meta type="password"> entries.
func BuildJob(model *Model, filename string) (*domain.Job, error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name, password := splitPassword(base)

	job := domain.NewJob(ksuid.New().String(), platform.SanitizeFilename(name))
	job.Filename = filepath.Base(filename)

	job.Passwords = append(job.Passwords, model.MetaValues("password")...)
	if password != "" {
		job.Passwords = append(job.Passwords, password)
	}

	for i := range model.Files {
		raw := &model.Files[i]
		if len(raw.Segments) == 0 {
			continue
		}

		table := make(domain.Decodetable, len(raw.Segments))
		for _, seg := range raw.Segments {
			table[seg.Number] = domain.ArticleRef(strings.Trim(strings.TrimSpace(seg.MessageID), "<>"))
		}

		job.AddFile(domain.NewFileItem(platform.SubjectFilename(raw.Subject), raw.TotalSize(), table))
	}

	if len(job.Files()) == 0 {
		return nil, ErrEmptyNZB
	}
	return job, nil
}

// splitPassword splits "name{{secret}}" into its parts.
func splitPassword(s string) (string, string) {
	open := strings.LastIndex(s, "{{")
	if open < 0 || !strings.HasSuffix(s, "}}") || open+2 >= len(s)-2 {
		return s, ""
	}
	return strings.TrimSpace(s[:open]), s[open+2 : len(s)-2]
}
