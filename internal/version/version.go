// Package version holds the build version and the on-disk format versions
// this binary reads and writes.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/vexsearch/mergebench/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = ""
)

const (
	// MetaFormatVersionCurrent is the meta.json format version written.
	MetaFormatVersionCurrent = 1
	// MetaFormatVersionMin is the oldest meta.json version this binary reads.
	MetaFormatVersionMin = 1
)

// SupportedVersions is a readable version range.
type SupportedVersions struct {
	CurrentVersion int
	MinVersion     int
}

// MetaVersions returns the supported meta.json format versions.
func MetaVersions() SupportedVersions {
	return SupportedVersions{
		CurrentVersion: MetaFormatVersionCurrent,
		MinVersion:     MetaFormatVersionMin,
	}
}

// CanRead returns true if the given version is readable.
func (sv SupportedVersions) CanRead(version int) bool {
	return version >= sv.MinVersion && version <= sv.CurrentVersion
}

// ErrVersionTooOld indicates a format version is older than the minimum supported.
type ErrVersionTooOld struct {
	Format     string
	Version    int
	MinVersion int
}

func (e *ErrVersionTooOld) Error() string {
	return fmt.Sprintf("%s format version %d is too old (minimum: %d)", e.Format, e.Version, e.MinVersion)
}

// ErrVersionTooNew indicates a format version is newer than this binary can read.
type ErrVersionTooNew struct {
	Format         string
	Version        int
	CurrentVersion int
}

func (e *ErrVersionTooNew) Error() string {
	return fmt.Sprintf("%s format version %d is too new (current: %d)", e.Format, e.Version, e.CurrentVersion)
}

// CheckMetaVersion validates that a meta.json format version is readable.
func CheckMetaVersion(version int) error {
	sv := MetaVersions()
	if version < sv.MinVersion {
		return &ErrVersionTooOld{Format: "meta", Version: version, MinVersion: sv.MinVersion}
	}
	if version > sv.CurrentVersion {
		return &ErrVersionTooNew{Format: "meta", Version: version, CurrentVersion: sv.CurrentVersion}
	}
	return nil
}

// String returns a one-line description of the build.
func String() string {
	s := "mergebench " + Version
	if Commit != "" {
		s += " (" + Commit + ")"
	}
	return s + " " + runtime.Version()
}
