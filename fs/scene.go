package fs

import (
	"context"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/parley"
)

// Interface compliance check.
var _ parley.SceneProvider = (*Scene)(nil)

// Scene describes the entries of a directory that match a set of glob
// patterns. Patterns support ** for recursive matching.
type Scene struct {
	Root       string
	Patterns   []string // defaults to DefaultPatterns
	MaxEntries int      // defaults to DefaultMaxEntries
}

type entry struct {
	path string
	info iofs.FileInfo
}

// Describe lists the matching entries, one per line, sorted by path:
//
//	name (file): 120 bytes, modified 2026-01-02 15:04
//
// Entries beyond MaxEntries are summarized in a final line.
func (s *Scene) Describe(ctx context.Context) (string, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return "", fmt.Errorf("fs: scene root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("fs: scene root %s is not a directory", s.Root)
	}

	patterns := s.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	limit := s.MaxEntries
	if limit <= 0 {
		limit = DefaultMaxEntries
	}

	fsys := os.DirFS(s.Root)
	seen := make(map[string]entry)
	for _, pattern := range patterns {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !doublestar.ValidatePattern(pattern) {
			return "", fmt.Errorf("fs: invalid glob pattern: %s", pattern)
		}
		err := doublestar.GlobWalk(fsys, pattern, func(path string, d iofs.DirEntry) error {
			if _, ok := seen[path]; ok {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return nil
			}
			seen[path] = entry{path: filepath.FromSlash(path), info: fi}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("fs: match %s: %w", pattern, err)
		}
	}

	if len(seen) == 0 {
		return "(empty)", nil
	}
	entries := make([]entry, 0, len(seen))
	for _, e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	var b strings.Builder
	for i, e := range entries {
		if i == limit {
			fmt.Fprintf(&b, "... and %d more", len(entries)-limit)
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		writeEntry(&b, e)
	}
	return b.String(), nil
}

func writeEntry(b *strings.Builder, e entry) {
	kind := "file"
	if e.info.IsDir() {
		kind = "dir"
	}
	fmt.Fprintf(b, "%s (%s)", e.path, kind)
	if !e.info.IsDir() {
		fmt.Fprintf(b, ": %d bytes", e.info.Size())
	}
	fmt.Fprintf(b, ", modified %s", e.info.ModTime().Format(timeLayout))
}
