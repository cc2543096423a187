package matcher

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const (
	nestedDirectoryName = "a"
	nestedFileName      = "b.txt"
	rootFileName        = "c.txt"
	gitConfigFileName   = "config"
	fixtureFileContent  = "content"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// makeTestDirectory creates a directory, failing the test on error.
func makeTestDirectory(testingHandle *testing.T, directoryPath string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(directoryPath, 0o755); makeDirError != nil {
		testingHandle.Fatalf("failed to create %s: %v", directoryPath, makeDirError)
	}
}

// buildGitFixture creates a/b.txt, a/.git/config, and c.txt under a fresh root.
func buildGitFixture(testingHandle *testing.T) string {
	testingHandle.Helper()
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, nestedDirectoryName)
	gitDirectory := filepath.Join(nestedDirectory, ".git")
	makeTestDirectory(testingHandle, gitDirectory)
	writeTestFile(testingHandle, filepath.Join(nestedDirectory, nestedFileName), fixtureFileContent)
	writeTestFile(testingHandle, filepath.Join(gitDirectory, gitConfigFileName), fixtureFileContent)
	writeTestFile(testingHandle, filepath.Join(rootDirectory, rootFileName), fixtureFileContent)
	return rootDirectory
}

// TestFindMatchesExcludesGitDirectory verifies the .git subtree is fully
// excluded while regular files elsewhere are matched.
func TestFindMatchesExcludesGitDirectory(testingHandle *testing.T) {
	rootDirectory := buildGitFixture(testingHandle)

	matches, matchError := FindMatches(context.Background(), []string{rootDirectory}, nil)
	if matchError != nil {
		testingHandle.Fatalf("FindMatches failed: %v", matchError)
	}

	expectedMatches := []string{
		filepath.Join(rootDirectory, nestedDirectoryName, nestedFileName),
		filepath.Join(rootDirectory, rootFileName),
	}
	if !reflect.DeepEqual(matches, expectedMatches) {
		testingHandle.Fatalf("unexpected matches: got %v want %v", matches, expectedMatches)
	}
}

// TestFindMatchesOverlappingRootsDuplicates verifies nested roots repeat the
// same physical file without deduplication, in root order.
func TestFindMatchesOverlappingRootsDuplicates(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, nestedDirectoryName)
	makeTestDirectory(testingHandle, nestedDirectory)
	nestedFilePath := filepath.Join(nestedDirectory, nestedFileName)
	writeTestFile(testingHandle, nestedFilePath, fixtureFileContent)

	matches, matchError := FindMatches(context.Background(), []string{rootDirectory, nestedDirectory}, nil)
	if matchError != nil {
		testingHandle.Fatalf("FindMatches failed: %v", matchError)
	}

	expectedMatches := []string{nestedFilePath, nestedFilePath}
	if !reflect.DeepEqual(matches, expectedMatches) {
		testingHandle.Fatalf("unexpected matches: got %v want %v", matches, expectedMatches)
	}
}

// TestFindMatchesFileRootMatchesItself verifies a tracked root that is itself
// a regular file is emitted as its own match.
func TestFindMatchesFileRootMatchesItself(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	filePath := filepath.Join(rootDirectory, rootFileName)
	writeTestFile(testingHandle, filePath, fixtureFileContent)

	matches, matchError := FindMatches(context.Background(), []string{filePath}, nil)
	if matchError != nil {
		testingHandle.Fatalf("FindMatches failed: %v", matchError)
	}
	if !reflect.DeepEqual(matches, []string{filePath}) {
		testingHandle.Fatalf("unexpected matches: got %v want %v", matches, []string{filePath})
	}
}

// TestFindMatchesSkipsSymlinks verifies symlinks are neither followed nor
// emitted as matches.
func TestFindMatchesSkipsSymlinks(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	targetPath := filepath.Join(rootDirectory, rootFileName)
	writeTestFile(testingHandle, targetPath, fixtureFileContent)
	linkPath := filepath.Join(rootDirectory, "link.txt")
	if symlinkError := os.Symlink(targetPath, linkPath); symlinkError != nil {
		testingHandle.Skipf("symlinks unsupported: %v", symlinkError)
	}

	matches, matchError := FindMatches(context.Background(), []string{rootDirectory}, nil)
	if matchError != nil {
		testingHandle.Fatalf("FindMatches failed: %v", matchError)
	}
	if !reflect.DeepEqual(matches, []string{targetPath}) {
		testingHandle.Fatalf("unexpected matches: got %v want %v", matches, []string{targetPath})
	}
}

// TestFindMatchesMissingRootNamesRoot verifies a failing walk surfaces an
// error naming the offending root.
func TestFindMatchesMissingRootNamesRoot(testingHandle *testing.T) {
	missingRoot := filepath.Join(testingHandle.TempDir(), "gone")

	_, matchError := FindMatches(context.Background(), []string{missingRoot}, nil)
	if matchError == nil {
		testingHandle.Fatalf("expected error for missing root")
	}
	if !strings.Contains(matchError.Error(), missingRoot) {
		testingHandle.Fatalf("error %q does not name root %s", matchError, missingRoot)
	}
}

// TestNewExcluder verifies the shared predicate semantics.
func TestNewExcluder(testingHandle *testing.T) {
	excluded := NewExcluder([]string{"node_modules"})

	testCases := []struct {
		entryName   string
		isDirectory bool
		want        bool
	}{
		{".git", true, true},
		{".git", false, false},
		{"node_modules", true, true},
		{"node_modules", false, false},
		{"src", true, false},
		{"main.go", false, false},
	}
	for _, testCase := range testCases {
		got := excluded(testCase.entryName, testCase.isDirectory)
		if got != testCase.want {
			testingHandle.Fatalf("excluded(%q, %v) = %v, want %v", testCase.entryName, testCase.isDirectory, got, testCase.want)
		}
	}
}
