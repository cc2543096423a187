package utils

import (
	"os"
	"path/filepath"
	"testing"
)

// TestNormalizePathRelative verifies relative inputs become clean absolute paths.
func TestNormalizePathRelative(testingHandle *testing.T) {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		testingHandle.Fatalf("failed to determine working directory: %v", workingDirectoryError)
	}

	normalizedPath, normalizeError := NormalizePath("sub/../file.txt")
	if normalizeError != nil {
		testingHandle.Fatalf("NormalizePath failed: %v", normalizeError)
	}
	expectedPath := filepath.Join(workingDirectory, "file.txt")
	if normalizedPath != expectedPath {
		testingHandle.Fatalf("unexpected normalization: got %q want %q", normalizedPath, expectedPath)
	}
}

// TestNormalizePathDoesNotResolveSymlinks verifies normalization is purely
// lexical: a path that does not exist normalizes without error.
func TestNormalizePathDoesNotResolveSymlinks(testingHandle *testing.T) {
	missingPath := filepath.Join(testingHandle.TempDir(), "does", "not", "exist")

	normalizedPath, normalizeError := NormalizePath(missingPath)
	if normalizeError != nil {
		testingHandle.Fatalf("NormalizePath failed for missing path: %v", normalizeError)
	}
	if normalizedPath != missingPath {
		testingHandle.Fatalf("unexpected normalization: got %q want %q", normalizedPath, missingPath)
	}
}

// TestNormalizePathEmpty verifies an empty input is rejected.
func TestNormalizePathEmpty(testingHandle *testing.T) {
	if _, normalizeError := NormalizePath("  "); normalizeError == nil {
		testingHandle.Fatalf("expected error for empty path")
	}
}

// TestExpandHome verifies the tilde prefix expands to the home directory.
func TestExpandHome(testingHandle *testing.T) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		testingHandle.Skipf("home directory unavailable: %v", homeError)
	}

	if expandedPath := ExpandHome("~"); expandedPath != homeDirectory {
		testingHandle.Fatalf("unexpected expansion of ~: got %q want %q", expandedPath, homeDirectory)
	}
	expectedPath := filepath.Join(homeDirectory, "projects")
	if expandedPath := ExpandHome("~/projects"); expandedPath != expectedPath {
		testingHandle.Fatalf("unexpected expansion: got %q want %q", expandedPath, expectedPath)
	}
	if expandedPath := ExpandHome("/absolute/path"); expandedPath != "/absolute/path" {
		testingHandle.Fatalf("absolute path altered: got %q", expandedPath)
	}
}

// TestArchiveRelativePath verifies the leading separator is stripped.
func TestArchiveRelativePath(testingHandle *testing.T) {
	if relativePath := ArchiveRelativePath("/x/a.txt"); relativePath != "x/a.txt" {
		testingHandle.Fatalf("unexpected relative path: got %q want %q", relativePath, "x/a.txt")
	}
}
