// Package utils contains general helper functions used across the track tool.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	emptyPathMessage        = "path is empty"
	errorAbsolutePathFormat = "resolve absolute path for %q: %w"
	homePrefix              = "~/"
)

// ExpandHome replaces a leading "~" or "~/" with the current user's home directory.
// The path is returned unchanged when the home directory cannot be determined.
func ExpandHome(path string) string {
	if path == "~" {
		homeDirectory, homeError := os.UserHomeDir()
		if homeError == nil {
			return homeDirectory
		}
	}
	if strings.HasPrefix(path, homePrefix) {
		homeDirectory, homeError := os.UserHomeDir()
		if homeError == nil {
			return filepath.Join(homeDirectory, path[len(homePrefix):])
		}
	}
	return path
}

// NormalizePath converts a possibly relative user-supplied path into the single
// canonical form stored in the registry: home expansion followed by lexical
// absolutization and cleaning. Symlinks are never resolved, so a path can be
// normalized identically whether or not it still exists on disk.
func NormalizePath(path string) (string, error) {
	expandedPath := ExpandHome(strings.TrimSpace(path))
	if expandedPath == "" {
		return "", fmt.Errorf(emptyPathMessage)
	}
	absolutePath, absoluteError := filepath.Abs(expandedPath)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, path, absoluteError)
	}
	return filepath.Clean(absolutePath), nil
}

// ArchiveRelativePath strips the leading separator from an absolute path and
// converts it to slash form, producing the name used for archive entries and
// for destinations under a directory export root.
func ArchiveRelativePath(absolutePath string) string {
	trimmedPath := strings.TrimPrefix(absolutePath, string(filepath.Separator))
	return filepath.ToSlash(trimmedPath)
}
