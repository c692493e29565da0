package setup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// CopyFiles copies every file in sourceDir matching one of patterns into
// the same relative location under targetDir. Patterns are globs relative
// to sourceDir; a matching directory is copied recursively. Existing files
// in targetDir are never overwritten. Returns the relative paths copied.
func CopyFiles(sourceDir, targetDir string, patterns []string) ([]string, error) {
	var copied []string
	var errs []error

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(sourceDir, pattern))
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern %q: %w", pattern, err))
			continue
		}

		for _, match := range matches {
			err := filepath.WalkDir(match, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.Name() == ".git" {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
				if d.IsDir() || !d.Type().IsRegular() {
					return nil
				}

				rel, err := filepath.Rel(sourceDir, path)
				if err != nil {
					return err
				}
				ok, err := CopyFile(path, filepath.Join(targetDir, rel))
				if err != nil {
					return fmt.Errorf("copy %s: %w", rel, err)
				}
				if ok {
					copied = append(copied, filepath.ToSlash(rel))
				}
				return nil
			})
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	slices.Sort(copied)
	return slices.Compact(copied), errors.Join(errs...)
}

// CopyFile copies src to dst, creating parent directories as needed.
// Uses O_CREATE|O_EXCL to skip files that already exist (never overwrite).
// Preserves the source file's permission bits.
// Returns true if the file was copied, false if it was skipped.
func CopyFile(src, dst string) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	defer dstFile.Close()

	srcFile, err := os.Open(src)
	if err != nil {
		os.Remove(dst)
		return false, err
	}
	defer srcFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		os.Remove(dst)
		return false, err
	}

	return true, nil
}

// validPattern rejects patterns that would escape the main checkout.
func validPattern(pattern string) error {
	clean := filepath.ToSlash(filepath.Clean(pattern))
	if filepath.IsAbs(pattern) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("pattern %q must stay inside the repository", pattern)
	}
	return nil
}
