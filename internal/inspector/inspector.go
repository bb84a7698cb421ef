// Package inspector looks inside freshly assembled RAR files for encryption
// and unwanted member extensions.
package inspector

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/datallboy/gonzb-assembler/internal/archive"
	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/config"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/datallboy/gonzb-assembler/internal/platform"
)

type Config struct {
	UnwantedExtensions []string // lowercase, no dot
	UnwantedAction     config.Action
	EncryptedAction    config.Action
	PasswordFile       string
}

// FromConfig picks the inspector settings out of the application config.
func FromConfig(c config.AssemblyConfig) Config {
	return Config{
		UnwantedExtensions: c.UnwantedExtensions,
		UnwantedAction:     c.UnwantedAction,
		EncryptedAction:    c.EncryptedAction,
		PasswordFile:       c.PasswordFile,
	}
}

type Inspector struct {
	cfg      Config
	opener   archive.Opener
	log      *logger.Logger
	unwanted map[string]struct{}
	windows  bool
}

// New returns an inspector. A nil opener disables inspection.
func New(cfg Config, opener archive.Opener, log *logger.Logger) *Inspector {
	unwanted := make(map[string]struct{}, len(cfg.UnwantedExtensions))
	for _, ext := range cfg.UnwantedExtensions {
		unwanted[ext] = struct{}{}
	}
	return &Inspector{
		cfg:      cfg,
		opener:   opener,
		log:      log,
		unwanted: unwanted,
		windows:  runtime.GOOS == "windows",
	}
}

func (i *Inspector) unwantedActive() bool {
	return len(i.unwanted) > 0 && i.cfg.UnwantedAction != config.ActionNone
}

func (i *Inspector) encryptedActive(job *domain.Job) bool {
	return i.cfg.EncryptedAction != config.ActionNone && job.Encrypted == domain.EncryptionUnknown
}

// Inspect lists the archive at path once and reports whether the job should
// be treated as encrypted and the first member with an unwanted extension.
// It never fails: any problem with the archive yields (false, "").
func (i *Inspector) Inspect(ctx context.Context, job *domain.Job, path string) (encrypted bool, unwanted string) {
	checkUnwanted := i.unwantedActive()
	checkEncrypted := i.encryptedActive(job)
	if i.opener == nil || (!checkUnwanted && !checkEncrypted) {
		return false, ""
	}

	defer func() {
		if r := recover(); r != nil {
			i.log.Info("Error during inspection of RAR-file %s: %v", path, r)
			encrypted, unwanted = false, ""
		}
	}()

	// Archive tools can hang on Windows device names
	if i.windows && platform.HasWinDevice(path) {
		return false, ""
	}
	if !archive.IsRarFile(path) {
		return false, ""
	}

	a, err := i.opener.Open(ctx, path)
	if err != nil {
		i.log.Info("Error during inspection of RAR-file %s: %v", path, err)
		return false, ""
	}
	defer a.Close()

	names := a.Names()

	if checkEncrypted {
		cloaked := i.isCloaked(job, path, names)
		if cloaked {
			encrypted = true
		} else if a.NeedsPassword() {
			var ok bool
			encrypted, ok = i.tryPasswords(ctx, job, a)
			if !ok {
				return false, ""
			}
		}
	}

	if checkUnwanted {
		unwanted = i.findUnwanted(names)
	}
	return encrypted, unwanted
}

// tryPasswords runs the candidate passwords against a. ok is false when the
// inspection has to be abandoned without a verdict.
func (i *Inspector) tryPasswords(ctx context.Context, job *domain.Job, a archive.Archive) (encrypted, ok bool) {
	passwords := i.passwords(job)

	if !i.opener.CanDecrypt() {
		if len(passwords) == 0 {
			i.log.Info("%s cannot test encrypted archives and no passwords are known", i.opener.Name())
			job.Encrypted = domain.EncryptionConfirmed
			return true, true
		}
		// Leave it to the unpacker to try them
		job.Encrypted = domain.EncryptionPasswordRecovered
		return false, true
	}

	for _, pw := range passwords {
		if pw == "" {
			continue
		}
		i.log.Info("Trying password %q on job %q", pw, job.Name)

		// Some passwords are rejected here but still work for the test
		_ = a.SetPassword(pw)

		err := a.Test(ctx)
		switch {
		case err == nil, errors.Is(err, archive.ErrChecksum):
			i.log.Info("Password %q matches for job %q", pw, job.Name)
			job.Encrypted = domain.EncryptionPasswordRecovered
			return false, true
		case errors.Is(err, archive.ErrWrongVolume):
			return false, false
		}
	}

	job.Encrypted = domain.EncryptionConfirmed
	return true, true
}

// Matches subtitle packs, which legitimately ship as a RAR inside a RAR.
var reSubs = regexp.MustCompile(`(?i)\W+sub|subs|subpack|subtitle`)

// isCloaked reports whether the archive is likely an encrypted post hiding
// behind a same-named inner RAR, or carries a "password" file. A hit latches
// the job as encrypted.
func (i *Inspector) isCloaked(job *domain.Job, archivePath string, names []string) bool {
	fname := strings.ToLower(filepath.Base(archivePath))
	fname = strings.TrimSuffix(fname, filepath.Ext(fname))

	for _, name := range names {
		name = strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
		ext := path.Ext(name)
		name = strings.TrimSuffix(name, ext)

		if ext == ".rar" && samePrefix(fname, name) && len(names) < 3 &&
			!reSubs.MatchString(fname) && !reSubs.MatchString(name) {
			if job.Encrypted == domain.EncryptionUnknown {
				i.log.Warn("Job %q is probably encrypted due to RAR with same name inside this RAR", job.Name)
				job.Encrypted = domain.EncryptionConfirmed
			}
			return true
		}
		if strings.Contains(name, "password") {
			if job.Encrypted == domain.EncryptionUnknown {
				i.log.Warn("Job %q is probably encrypted: \"password\" in filename %q", job.Name, name)
				job.Encrypted = domain.EncryptionConfirmed
			}
			return true
		}
	}
	return false
}

// samePrefix reports whether one name starts with the other and they differ
// by fewer than 8 characters.
func samePrefix(a, b string) bool {
	if len(a) < len(b) {
		a, b = b, a
	}
	return strings.HasPrefix(a, b) && len(a)-len(b) < 8
}

func (i *Inspector) findUnwanted(names []string) string {
	for _, name := range names {
		i.log.Debug("File contains: %s", name)
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(strings.ReplaceAll(name, "\\", "/")), "."))
		if _, ok := i.unwanted[ext]; ok && ext != "" {
			i.log.Debug("Unwanted file %s", name)
			return name
		}
	}
	return ""
}
