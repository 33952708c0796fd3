// Package postindex generates posts/index.json from the post files present
// in a content directory.
package postindex

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"

	"adventune/folio/source"
)

const postGlob = "posts/*.txt"

// Scan returns the ids of every post file in fsys, sorted. Files whose
// path relative to fsys matches one of the exclude patterns are skipped,
// as are names that are not usable ids.
func Scan(fsys fs.FS, exclude ...string) ([]string, error) {
	for _, pattern := range exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	paths, err := doublestar.Glob(fsys, postGlob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("scanning posts: %w", err)
	}

	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		if excluded(p, exclude) {
			log.Debug().Str("path", p).Msg("Skipping excluded post")
			continue
		}
		id := strings.TrimSuffix(path.Base(p), ".txt")
		if !source.ValidID(id) {
			log.Warn().Str("path", p).Msg("Skipping post with unusable name")
			continue
		}
		log.Debug().Str("path", p).Msg("Found post")
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func excluded(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, path.Base(p)); ok {
			return true
		}
	}
	return false
}

// Write stores ids as the index of the content directory dir.
func Write(dir string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling index: %w", err)
	}
	out := filepath.Join(dir, filepath.FromSlash(source.IndexPath))
	if err := os.MkdirAll(filepath.Dir(out), os.ModePerm); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}
	if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing index to %s: %w", out, err)
	}
	return nil
}

// Build scans dir and rewrites its index.
func Build(dir string, exclude ...string) ([]string, error) {
	ids, err := Scan(os.DirFS(dir), exclude...)
	if err != nil {
		return nil, err
	}
	if err := Write(dir, ids); err != nil {
		return nil, err
	}
	log.Info().Int("posts", len(ids)).Str("path", dir).Msg("Wrote post index")
	return ids, nil
}
