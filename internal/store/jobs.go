package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/par2"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateJob stores a new job with its files and article bookkeeping.
func (s *PersistentStore) CreateJob(ctx context.Context, job *domain.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveJob(ctx, tx, job); err != nil {
		return err
	}

	for i, f := range job.Files() {
		for _, num := range f.Decodetable.Numbers() {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO articles (job_id, file_index, number, ref)
				VALUES (?, ?, ?, ?)`,
				job.ID, i, num, string(f.Decodetable[num]))
			if err != nil {
				return fmt.Errorf("failed to save article %d of %s: %w", num, f.Filename, err)
			}
		}
	}
	return tx.Commit()
}

// SaveJob updates the job, its files and its md5packs.
func (s *PersistentStore) SaveJob(ctx context.Context, job *domain.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveJob(ctx, tx, job); err != nil {
		return err
	}
	return tx.Commit()
}

func saveJob(ctx context.Context, tx execer, job *domain.Job) error {
	var j jobDBO
	if err := j.FromDomain(job); err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (id, name, filename, passwords, status, encrypted, unwanted_ext,
		                  rating_filtered, fail_msg, total_bytes, bytes_written, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			encrypted = excluded.encrypted,
			unwanted_ext = excluded.unwanted_ext,
			rating_filtered = excluded.rating_filtered,
			fail_msg = excluded.fail_msg,
			total_bytes = excluded.total_bytes,
			bytes_written = excluded.bytes_written`,
		j.ID, j.Name, j.Filename, j.Passwords, j.Status, j.Encrypted, j.UnwantedExt,
		j.RatingFiltered, j.FailMsg, j.TotalBytes, j.BytesWritten, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}

	for i, file := range job.Files() {
		var f fileDBO
		f.FromDomain(i, file)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO job_files (job_id, file_index, filename, type, size, path, md5)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(job_id, file_index) DO UPDATE SET
				filename = excluded.filename,
				path = excluded.path,
				md5 = excluded.md5`,
			job.ID, f.Index, f.Filename, f.Type, f.Size, f.Path, f.MD5)
		if err != nil {
			return fmt.Errorf("failed to save file %s: %w", file.Filename, err)
		}
	}

	for setname, table := range job.MD5Packs {
		for name, hash := range table {
			_, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO md5packs (job_id, set_name, filename, hash)
				VALUES (?, ?, ?, ?)`,
				job.ID, setname, name, hash[:])
			if err != nil {
				return fmt.Errorf("failed to save md5pack %s: %w", setname, err)
			}
		}
	}
	return nil
}

// GetJob loads a job with its files, remaining articles and md5packs.
func (s *PersistentStore) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	var j jobDBO
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, filename, passwords, status, encrypted, unwanted_ext,
		       rating_filtered, fail_msg, total_bytes, bytes_written, created_at
		FROM jobs WHERE id = ? LIMIT 1`, id).Scan(
		&j.ID, &j.Name, &j.Filename, &j.Passwords, &j.Status, &j.Encrypted, &j.UnwantedExt,
		&j.RatingFiltered, &j.FailMsg, &j.TotalBytes, &j.BytesWritten, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}

	job, err := j.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}

	tables, err := s.decodetables(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_index, filename, type, size, path, md5
		FROM job_files WHERE job_id = ? ORDER BY file_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f fileDBO
		if err := rows.Scan(&f.Index, &f.Filename, &f.Type, &f.Size, &f.Path, &f.MD5); err != nil {
			return nil, err
		}
		table := tables[f.Index]
		if table == nil {
			table = domain.Decodetable{}
		}
		job.AddFile(f.ToDomain(table))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// AddFile recomputes the total from file sizes
	job.TotalBytes = uint64(j.TotalBytes)

	if err := s.loadMD5Packs(ctx, job); err != nil {
		return nil, err
	}
	job.Publish()
	return job, nil
}

func (s *PersistentStore) decodetables(ctx context.Context, jobID string) (map[int]domain.Decodetable, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_index, number, ref FROM articles WHERE job_id = ?`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer rows.Close()

	tables := make(map[int]domain.Decodetable)
	for rows.Next() {
		var idx, num int
		var ref string
		if err := rows.Scan(&idx, &num, &ref); err != nil {
			return nil, err
		}
		if tables[idx] == nil {
			tables[idx] = make(domain.Decodetable)
		}
		tables[idx][num] = domain.ArticleRef(ref)
	}
	return tables, rows.Err()
}

func (s *PersistentStore) loadMD5Packs(ctx context.Context, job *domain.Job) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT set_name, filename, hash FROM md5packs WHERE job_id = ?`, job.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch md5packs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var setname, name string
		var raw []byte
		if err := rows.Scan(&setname, &name, &raw); err != nil {
			return err
		}
		if job.MD5Packs[setname] == nil {
			job.MD5Packs[setname] = make(par2.Table)
		}
		var h par2.Hash
		copy(h[:], raw)
		job.MD5Packs[setname][name] = h
	}
	return rows.Err()
}

// ListJobs returns all stored jobs without their files, oldest first.
func (s *PersistentStore) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, filename, passwords, status, encrypted, unwanted_ext,
		       rating_filtered, fail_msg, total_bytes, bytes_written, created_at
		FROM jobs ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		var j jobDBO
		err := rows.Scan(&j.ID, &j.Name, &j.Filename, &j.Passwords, &j.Status, &j.Encrypted,
			&j.UnwantedExt, &j.RatingFiltered, &j.FailMsg, &j.TotalBytes, &j.BytesWritten, &j.CreatedAt)
		if err != nil {
			return nil, err
		}
		job, err := j.ToDomain()
		if err != nil {
			// Skip undecodable rows rather than hiding every job
			continue
		}
		job.TotalBytes = uint64(j.TotalBytes)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job and everything stored for it.
func (s *PersistentStore) DeleteJob(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	return err
}

// DeleteArticles drops the bookkeeping rows of the given articles.
func (s *PersistentStore) DeleteArticles(ctx context.Context, jobID string, refs []domain.ArticleRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ref := range refs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE job_id = ? AND ref = ?`, jobID, string(ref)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CountArticles returns how many article rows remain for a job.
func (s *PersistentStore) CountArticles(ctx context.Context, jobID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE job_id = ?`, jobID).Scan(&n)
	return n, err
}
