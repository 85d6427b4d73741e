package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/immxrtalbeast/rnplay/internal/domain"
)

var ErrInvalidPath = errors.New("invalid path")

// stagingDir returns root/userID/projectID after checking both ids are
// single path segments.
func stagingDir(root, userID, projectID string) (string, error) {
	for _, part := range []string{userID, projectID} {
		if part == "" || part == "." || part == ".." ||
			strings.ContainsAny(part, `/\`) || strings.ContainsRune(part, 0) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, part)
		}
	}

	abs, err := filepath.Abs(filepath.Join(root, userID, projectID))
	if err != nil {
		return "", err
	}
	return abs, nil
}

// stage rebuilds dir from files. Prior contents are removed, never merged.
func stage(dir string, files []domain.File) error {
	targets := make([]string, 0, len(files))
	for _, f := range files {
		target, err := resolveFilePath(dir, f.Name)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing staging dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}

	for i, f := range files {
		target := targets[i]
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating dir for %s: %w", f.Name, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}

	return nil
}

// resolveFilePath joins a project-relative path onto dir, rejecting paths
// that are absolute or climb out of dir.
func resolveFilePath(dir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}

	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}

	return filepath.Join(dir, clean), nil
}
