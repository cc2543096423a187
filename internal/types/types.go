// Package types defines the cross-package data structures used by the track CLI.
package types

import "fmt"

const (
	CommandAdd     = "add"
	CommandList    = "ls"
	CommandRemove  = "rm"
	CommandPrune   = "prune"
	CommandMatched = "matched"
	CommandExport  = "export"
)

// ExportKind identifies the representation an export produces.
type ExportKind string

const (
	// ExportKindDirectory mirrors the matched files into a directory tree.
	ExportKindDirectory ExportKind = "dir"
	// ExportKindTar streams the matched files into a gzip-compressed tar archive.
	ExportKindTar ExportKind = "tar"
	// ExportKindZip is recognized but intentionally unimplemented.
	ExportKindZip ExportKind = "zip"
)

// unknownExportKindFormat reports an unrecognized export kind argument.
const unknownExportKindFormat = "unknown export kind %q"

// ParseExportKind converts a raw command argument into an ExportKind.
func ParseExportKind(value string) (ExportKind, error) {
	switch ExportKind(value) {
	case ExportKindDirectory, ExportKindTar, ExportKindZip:
		return ExportKind(value), nil
	default:
		return "", fmt.Errorf(unknownExportKindFormat, value)
	}
}

// MatchSummary aggregates information about a matched file set.
type MatchSummary struct {
	Files  int
	Bytes  int64
	Tokens int
	Model  string
}
