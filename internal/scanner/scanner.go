// Package scanner lists the files of a directory that a keyword scan covers.
// Only regular files directly inside the directory are listed; the listing
// is non-recursive and ordered by name.
package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/Aman-CERP/kwscan/internal/errors"
	"github.com/Aman-CERP/kwscan/internal/ignore"
)

// Options configures a listing.
type Options struct {
	// Exclude holds base-name patterns to skip (e.g. "*.log", ".env*", "*tmp*").
	Exclude []string

	// MaxFileSize skips files larger than this many bytes (0 = no limit).
	MaxFileSize int64

	// IgnoreFile names a file inside the directory holding gitignore-style
	// rules. The file itself is never scanned. Empty disables it.
	IgnoreFile string
}

// Listing is the outcome of enumerating one directory.
type Listing struct {
	Dir     string   // Absolute directory path
	Files   []string // Full paths of the files to scan, in name order
	Skipped int      // Entries skipped by exclude or size rules
}

// List enumerates the regular files of dir. Subdirectories, symlinks and
// other non-regular entries are ignored. A missing or unreadable directory
// is an error; an empty directory yields an empty listing.
func List(dir string, opts Options) (*Listing, error) {
	if dir == "" {
		dir = "."
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, kerrors.IOError(fmt.Sprintf("failed to resolve %s", dir), err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.New(kerrors.ErrCodeDirNotFound,
				fmt.Sprintf("directory not found: %s", absDir), err).
				WithDetail("path", absDir)
		}
		return nil, kerrors.IOError(fmt.Sprintf("failed to stat %s", absDir), err)
	}
	if !info.IsDir() {
		return nil, kerrors.New(kerrors.ErrCodeDirNotFound,
			fmt.Sprintf("not a directory: %s", absDir), nil).
			WithDetail("path", absDir)
	}

	// os.ReadDir returns entries sorted by filename.
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, kerrors.IOError(fmt.Sprintf("failed to read %s", absDir), err)
	}

	rules := &ignore.Matcher{}
	if opts.IgnoreFile != "" {
		rules, err = ignore.Load(filepath.Join(absDir, opts.IgnoreFile))
		if err != nil {
			return nil, kerrors.IOError(fmt.Sprintf("failed to load %s", opts.IgnoreFile), err)
		}
	}

	listing := &Listing{Dir: absDir, Files: make([]string, 0, len(entries))}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()

		if opts.IgnoreFile != "" && (name == opts.IgnoreFile || rules.Match(name, false)) {
			listing.Skipped++
			slog.Debug("file_ignored", slog.String("name", name))
			continue
		}

		if matchesAny(name, opts.Exclude) {
			listing.Skipped++
			slog.Debug("file_excluded", slog.String("name", name))
			continue
		}

		if opts.MaxFileSize > 0 && tooLarge(entry, opts.MaxFileSize) {
			listing.Skipped++
			slog.Debug("file_too_large",
				slog.String("name", name),
				slog.Int64("max_bytes", opts.MaxFileSize))
			continue
		}

		listing.Files = append(listing.Files, filepath.Join(absDir, name))
	}

	return listing, nil
}

func tooLarge(entry fs.DirEntry, limit int64) bool {
	info, err := entry.Info()
	if err != nil {
		// Vanished between ReadDir and Info; let the reader report it.
		return false
	}
	return info.Size() > limit
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if MatchPattern(name, p) {
			return true
		}
	}
	return false
}

// MatchPattern reports whether a file base name matches an exclude pattern.
// Supported forms: exact name, "*suffix", "prefix*", "*middle*", and any
// filepath.Match glob.
func MatchPattern(name, pattern string) bool {
	if pattern == "" {
		return false
	}

	// *middle* is a case-insensitive contains match
	if len(pattern) > 1 && strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		middle := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
		if !strings.ContainsAny(middle, "*?[") {
			return strings.Contains(strings.ToLower(name), strings.ToLower(middle))
		}
	}

	if strings.HasPrefix(pattern, "*") && !strings.ContainsAny(pattern[1:], "*?[") {
		return strings.HasSuffix(name, strings.TrimPrefix(pattern, "*"))
	}

	if strings.HasSuffix(pattern, "*") && !strings.ContainsAny(pattern[:len(pattern)-1], "*?[") {
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	}

	matched, err := filepath.Match(pattern, name)
	if err == nil && matched {
		return true
	}

	return name == pattern
}
