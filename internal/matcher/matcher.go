// Package matcher discovers the regular files reachable under tracked roots.
package matcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/sbstp/track/internal/utils"
)

// errorScanningPathFormat contextualizes a walk failure with the offending root.
const errorScanningPathFormat = "scanning path %s: %w"

// Excluder reports whether a directory entry is excluded from descent. The
// same predicate drives both the matching walk and the export clean step.
type Excluder func(entryName string, isDirectory bool) bool

// NewExcluder builds the exclusion predicate. A directory named exactly .git
// is always excluded; extraDirectoryNames extends the excluded set. Regular
// files are never excluded by name.
func NewExcluder(extraDirectoryNames []string) Excluder {
	excludedNames := map[string]struct{}{utils.GitDirectoryName: {}}
	for _, directoryName := range extraDirectoryNames {
		if directoryName == "" {
			continue
		}
		excludedNames[directoryName] = struct{}{}
	}
	return func(entryName string, isDirectory bool) bool {
		if !isDirectory {
			return false
		}
		_, isExcluded := excludedNames[entryName]
		return isExcluded
	}
}

// FindMatches walks each root and returns the absolute paths of every regular
// file found, in root order with each root's matches in deterministic lexical
// walk order. Symlinks are not followed and are never emitted as matches.
// Overlapping roots may repeat the same file; no deduplication is performed.
// A failure under any root aborts the whole operation with an error naming
// that root.
func FindMatches(ctx context.Context, roots []string, excluded Excluder) ([]string, error) {
	if excluded == nil {
		excluded = NewExcluder(nil)
	}

	// Roots are independent, so their walks run concurrently; stitching the
	// per-root slices back in root order keeps the output identical to a
	// sequential walk.
	perRootMatches := make([][]string, len(roots))
	group, groupContext := errgroup.WithContext(ctx)
	for rootIndex, rootPath := range roots {
		rootIndex, rootPath := rootIndex, rootPath
		group.Go(func() error {
			rootMatches, walkError := walkRoot(groupContext, rootPath, excluded)
			if walkError != nil {
				return fmt.Errorf(errorScanningPathFormat, rootPath, walkError)
			}
			perRootMatches[rootIndex] = rootMatches
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}

	var allMatches []string
	for _, rootMatches := range perRootMatches {
		allMatches = append(allMatches, rootMatches...)
	}
	return allMatches, nil
}

// walkRoot descends the tree rooted at rootPath. A root that is itself a
// regular file matches itself.
func walkRoot(ctx context.Context, rootPath string, excluded Excluder) ([]string, error) {
	var matches []string
	walkError := filepath.WalkDir(rootPath, func(entryPath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		if entry.IsDir() {
			if excluded(entry.Name(), true) {
				return fs.SkipDir
			}
			return nil
		}
		if entry.Type().IsRegular() {
			matches = append(matches, entryPath)
		}
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}
	return matches, nil
}
