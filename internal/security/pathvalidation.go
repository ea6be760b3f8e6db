package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks if a file path is within a safe directory.
// It prevents path traversal by ensuring the resolved path doesn't escape the
// directory, including through symlinks that already exist on disk. The
// directory itself does not need to exist yet: a download destination is
// validated before its parent is created.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	canonicalPath, err := canonicalize(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	canonicalSafeDir, err := canonicalize(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	relPath, err := filepath.Rel(canonicalSafeDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}

	return nil
}

// canonicalize returns the absolute path with symlinks resolved for the
// longest existing prefix. Components that do not exist yet are appended
// verbatim, so /tmp/evil-symlink/newfile.txt is still caught when
// evil-symlink points elsewhere.
func canonicalize(p string) (string, error) {
	absPath, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", err
	}

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved, nil
	}

	checkPath := absPath
	for {
		parentDir := filepath.Dir(checkPath)
		if parentDir == checkPath {
			return absPath, nil
		}

		if resolved, err := filepath.EvalSymlinks(parentDir); err == nil {
			relToParent, _ := filepath.Rel(parentDir, absPath)
			return filepath.Join(resolved, relToParent), nil
		}

		checkPath = parentDir
	}
}

// ValidatePathWithinAllowedDirs checks if a file path is within any of the allowed directories.
// Returns nil if the path is valid, or an error describing why it was rejected.
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}

	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil
		}
	}

	return fmt.Errorf("path must be within one of the allowed directories: %v", allowedDirs)
}

// ValidateReportPath validates an output path for rendered reports.
// It must sit inside either the temp directory or the current working directory.
func ValidateReportPath(filePath string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	return ValidatePathWithinAllowedDirs(filePath, []string{os.TempDir(), cwd})
}

// ValidateArtifactFilename rejects catalog filenames that are not a single
// plain path element. Catalog names are joined onto the artifact directory,
// so separators or dot segments would let a bad entry write elsewhere.
func ValidateArtifactFilename(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid artifact filename %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("artifact filename %q must not contain path separators", name)
	case filepath.Base(name) != name:
		return fmt.Errorf("artifact filename %q is not a plain file name", name)
	}
	return nil
}
