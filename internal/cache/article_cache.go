// Package cache holds decoded article payloads until the assembler consumes
// them.
package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/datallboy/gonzb-assembler/internal/decoding"
	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/infra/logger"
	"github.com/datallboy/gonzb-assembler/internal/platform"
)

// ArticleCache keeps decoded articles in memory and falls back to article
// bodies spilled to Dir. Every article is handed out at most once.
type ArticleCache struct {
	Dir string

	log *logger.Logger
	mu  sync.Mutex
	mem map[domain.ArticleRef][]byte
}

func New(dir string, log *logger.Logger) *ArticleCache {
	return &ArticleCache{
		Dir: dir,
		log: log,
		mem: make(map[domain.ArticleRef][]byte),
	}
}

// Save keeps decoded data in memory.
func (c *ArticleCache) Save(ref domain.ArticleRef, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[ref] = data
}

// Put spills an article body (raw yEnc or already decoded) to disk.
func (c *ArticleCache) Put(ref domain.ArticleRef, body []byte) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(c.path(ref), body, 0644)
}

// Has reports whether the article is available without consuming it.
func (c *ArticleCache) Has(ref domain.ArticleRef) bool {
	c.mu.Lock()
	_, ok := c.mem[ref]
	c.mu.Unlock()
	if ok {
		return true
	}
	_, err := os.Stat(c.path(ref))
	return err == nil
}

// LoadArticle returns the decoded payload and forgets the article. A missing
// article, or one whose yEnc CRC does not match, is reported as absent.
func (c *ArticleCache) LoadArticle(ref domain.ArticleRef) ([]byte, bool) {
	c.mu.Lock()
	data, ok := c.mem[ref]
	delete(c.mem, ref)
	c.mu.Unlock()
	if ok {
		return data, true
	}

	path := c.path(ref)
	body, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("Cannot read cached article %s: %v", ref, err)
		}
		return nil, false
	}
	_ = os.Remove(path)

	if !decoding.IsYenc(body) {
		return body, true
	}
	data, err = decoding.Decode(body)
	if err != nil {
		c.log.Info("Discarding article %s: %v", ref, err)
		return nil, false
	}
	return data, true
}

// Len returns the number of articles held in memory.
func (c *ArticleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mem)
}

func (c *ArticleCache) path(ref domain.ArticleRef) string {
	name := strings.Trim(string(ref), "<>")
	return filepath.Join(c.Dir, platform.SanitizeFilename(name)+".article")
}
