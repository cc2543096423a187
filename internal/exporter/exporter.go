// Package exporter materializes a matched file set at a new location, either
// as a mirrored directory tree or as a gzip-compressed tar archive. Exported
// paths are made relative to the filesystem root, so /x/a.txt lands at
// <root>/x/a.txt in a directory export and as entry x/a.txt in an archive.
package exporter

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sbstp/track/internal/matcher"
	"github.com/sbstp/track/internal/utils"
)

// ErrUnimplemented indicates an export format that is recognized but not built.
var ErrUnimplemented = errors.New("export format not implemented")

const (
	errorCleanReadFormat   = "read export destination %s: %w"
	errorCleanRemoveFormat = "remove %s from export destination: %w"
	errorCopySourceFormat  = "copy %s: %w"
	errorArchiveAddFormat  = "add %s to archive: %w"
	temporaryCopySuffix    = ".tmp"
)

// CleanDirectory deletes every child of root except children the predicate
// excludes, preserving a .git directory a user may keep alongside exports.
// This makes repeated exports into the same destination idempotent.
func CleanDirectory(root string, excluded matcher.Excluder) error {
	if excluded == nil {
		excluded = matcher.NewExcluder(nil)
	}
	children, readError := os.ReadDir(root)
	if readError != nil {
		return fmt.Errorf(errorCleanReadFormat, root, readError)
	}
	for _, child := range children {
		if excluded(child.Name(), child.IsDir()) {
			continue
		}
		childPath := filepath.Join(root, child.Name())
		if removeError := os.RemoveAll(childPath); removeError != nil {
			return fmt.Errorf(errorCleanRemoveFormat, childPath, removeError)
		}
	}
	return nil
}

// ExportDirectory cleans root and then mirrors every matched file beneath it,
// creating intermediate directories as needed. Matches are copied in emission
// order; when overlapping roots map two matches to the same destination the
// later copy wins. The first copy failure aborts the export naming the source.
func ExportDirectory(root string, matches []string, excluded matcher.Excluder) error {
	if cleanError := CleanDirectory(root, excluded); cleanError != nil {
		return cleanError
	}
	for _, matchedPath := range matches {
		destinationPath := filepath.Join(root, filepath.FromSlash(utils.ArchiveRelativePath(matchedPath)))
		if copyError := copyFile(matchedPath, destinationPath); copyError != nil {
			return fmt.Errorf(errorCopySourceFormat, matchedPath, copyError)
		}
	}
	return nil
}

// ExportTarGz creates destination and streams every matched file into a
// gzip-compressed tar archive, using the root-relative slash path as the
// entry name. On failure the partially written destination is left in place.
func ExportTarGz(destination string, matches []string) (err error) {
	outputFile, createError := os.Create(destination)
	if createError != nil {
		return fmt.Errorf("create archive %s: %w", destination, createError)
	}

	gzipWriter := gzip.NewWriter(outputFile)
	tarWriter := tar.NewWriter(gzipWriter)

	defer func() {
		// Close order matters: tar finalizes its trailer into gzip, gzip
		// flushes into the file. The first close failure surfaces.
		if closeError := tarWriter.Close(); closeError != nil && err == nil {
			err = fmt.Errorf("finalize archive %s: %w", destination, closeError)
		}
		if closeError := gzipWriter.Close(); closeError != nil && err == nil {
			err = fmt.Errorf("finalize compression for %s: %w", destination, closeError)
		}
		if closeError := outputFile.Close(); closeError != nil && err == nil {
			err = fmt.Errorf("close archive %s: %w", destination, closeError)
		}
	}()

	for _, matchedPath := range matches {
		if appendError := appendFileToArchive(tarWriter, matchedPath); appendError != nil {
			return fmt.Errorf(errorArchiveAddFormat, matchedPath, appendError)
		}
	}
	return nil
}

// ExportZip is an acknowledged non-goal. It fails fast before touching the
// filesystem.
func ExportZip(destination string, _ []string) error {
	return fmt.Errorf("%w: zip export to %s", ErrUnimplemented, destination)
}

// appendFileToArchive writes one file's header and streamed content to the tar.
func appendFileToArchive(tarWriter *tar.Writer, sourcePath string) error {
	sourceInfo, statError := os.Stat(sourcePath)
	if statError != nil {
		return statError
	}
	header, headerError := tar.FileInfoHeader(sourceInfo, "")
	if headerError != nil {
		return headerError
	}
	header.Name = utils.ArchiveRelativePath(sourcePath)

	if writeHeaderError := tarWriter.WriteHeader(header); writeHeaderError != nil {
		return writeHeaderError
	}

	sourceFile, openError := os.Open(sourcePath)
	if openError != nil {
		return openError
	}
	defer sourceFile.Close()

	_, copyError := io.Copy(tarWriter, sourceFile)
	return copyError
}

// copyFile copies src to dest through a temporary file renamed into place, so
// an interrupted export never leaves a truncated destination file. The source
// file's permission bits are preserved.
func copyFile(src, dest string) error {
	sourceInfo, statError := os.Stat(src)
	if statError != nil {
		return fmt.Errorf("stat source file %s: %w", src, statError)
	}
	if !sourceInfo.Mode().IsRegular() {
		return fmt.Errorf("source is not a regular file: %s", src)
	}

	if makeDirError := os.MkdirAll(filepath.Dir(dest), 0o755); makeDirError != nil {
		return fmt.Errorf("create parent directory for %s: %w", dest, makeDirError)
	}

	sourceFile, openError := os.Open(src)
	if openError != nil {
		return fmt.Errorf("open source file %s: %w", src, openError)
	}
	defer sourceFile.Close()

	temporaryDest := dest + temporaryCopySuffix
	destinationFile, createError := os.OpenFile(temporaryDest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, sourceInfo.Mode().Perm())
	if createError != nil {
		return fmt.Errorf("create temporary file %s: %w", temporaryDest, createError)
	}

	_, copyError := io.Copy(destinationFile, sourceFile)
	closeError := destinationFile.Close()
	if copyError != nil {
		_ = os.Remove(temporaryDest)
		return fmt.Errorf("copy %s to %s: %w", src, temporaryDest, copyError)
	}
	if closeError != nil {
		_ = os.Remove(temporaryDest)
		return fmt.Errorf("close temporary file %s: %w", temporaryDest, closeError)
	}

	if renameError := os.Rename(temporaryDest, dest); renameError != nil {
		_ = os.Remove(temporaryDest)
		return fmt.Errorf("replace %s with %s: %w", dest, temporaryDest, renameError)
	}
	return nil
}
