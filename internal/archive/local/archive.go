// Package local implements a filesystem archive for raw page bodies.
package local

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var invalidFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Config captures the parameters for the local page archive.
type Config struct {
	// BaseDir is the root directory where pages are written.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// Archive writes raw HTML of pages that failed extraction, so selectors can
// be debugged offline without re-fetching.
type Archive struct {
	baseDir string
}

// New creates a filesystem-backed archive, creating the base directory when
// it does not exist.
func New(cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case err != nil && os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	return &Archive{baseDir: cfg.BaseDir}, nil
}

// Put writes the body under a filename derived from the URL and returns a
// file:// URI pointing at it.
func (a *Archive) Put(_ context.Context, pageURL string, body []byte) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("page url is required")
	}

	fullPath := filepath.Join(a.baseDir, safeBasename(pageURL)+".html")
	if err := os.WriteFile(fullPath, body, 0o600); err != nil {
		return "", fmt.Errorf("write archived page: %w", err)
	}
	return fmt.Sprintf("file://%s", fullPath), nil
}

// safeBasename turns a URL into a filesystem-safe name that stays unique via
// a short hash suffix.
func safeBasename(raw string) string {
	sum := sha1.Sum([]byte(raw))
	hash := hex.EncodeToString(sum[:])[:16]

	u, err := url.Parse(raw)
	if err != nil {
		return hash
	}
	host := invalidFilenameChars.ReplaceAllString(u.Hostname(), "_")
	p := strings.Trim(u.EscapedPath(), "/")
	if p == "" {
		p = "root"
	}
	p = invalidFilenameChars.ReplaceAllString(p, "_")
	return fmt.Sprintf("%s_%s_%s", host, p, hash)
}
