// Package logfile reads pre-existing fallback log files. The store is
// read-only; resolution never writes here.
package logfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/logops-io/logops/internal/cache"
	"github.com/logops-io/logops/internal/domain"
)

// Store serves log files from a single directory, named
// {application}-{bundle}.log with an optional -{timestamp} suffix.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a Store over the given directory
func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Read returns the fallback log content and file name for an
// application/bundle pair. The exact-name file wins over timestamped
// variants; among variants the lexicographically last (newest timestamp)
// wins. Missing files return ErrNoData; unreadable files return
// ErrFileRead.
func (s *Store) Read(application, bundle string) (string, string, error) {
	base := cache.Sanitize(application) + "-" + cache.Sanitize(bundle)

	exact := filepath.Join(s.dir, base+".log")
	if content, err := s.readFile(exact); err == nil {
		return content, base + ".log", nil
	} else if !os.IsNotExist(err) {
		return "", "", fmt.Errorf("%w: %s: %v", domain.ErrFileRead, exact, err)
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, base+"-*.log"))
	if err != nil || len(matches) == 0 {
		return "", "", fmt.Errorf("%w: no fallback file for %s", domain.ErrNoData, base)
	}
	sort.Strings(matches)
	newest := matches[len(matches)-1]

	content, err := s.readFile(newest)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", domain.ErrFileRead, newest, err)
	}
	return content, filepath.Base(newest), nil
}

func (s *Store) readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s.logger.Info("loaded fallback log file", zap.String("path", path))
	return string(data), nil
}
