// Package zipstamp preserves meaningful per-entry timestamps inside
// AAR/JAR/WAR/ZIP archives across successive reproducible builds.
//
// A reproducible build stamps every archive entry with one project-wide
// instant, which makes downstream consumers (web crawlers, HTTP caches,
// sitemap generators) believe everything changed on every build. Zipstamp
// post-processes the built archives against their previous-build
// counterparts: entries whose content is unchanged get their previous
// timestamp back, entries that actually changed keep a current one. The
// update happens through surgical 4-byte in-place patches of the DOS time
// fields in both the local and central headers; archives are never
// rewritten, re-compressed or re-ordered.
//
// # Basic Usage
//
// Merging a single archive pair:
//
//	import "github.com/zipstamp/zipstamp"
//
//	outputTs := time.Date(2023, 9, 7, 1, 38, 34, 0, time.UTC)
//	result, err := zipstamp.MergeFile(outputTs,
//	    "last-build/app-1.2.2.war",
//	    "build/app-1.2.3.war",
//	)
//
// Merging two build directories, paired by artifact identifier:
//
//	result, err := zipstamp.MergeDirectory(outputTs,
//	    "last-build/", "build/",
//	    merge.WithRequireLastBuild(true),
//	)
//
// # Package Structure
//
// This package provides top-level wrappers around the merge package. The
// lower layers are usable directly: zipfmt reads archive structure, dostime
// converts DOS times, patch applies verified in-place updates, and artifact
// parses the filenames that pair archives across directories.
package zipstamp

import (
	"time"

	"github.com/zipstamp/zipstamp/merge"
)

// MergeFile merges per-entry timestamps from the last-build archive into
// the build archive, mutating the build archive in place.
//
// outputTimestamp is the project-wide instant reproducible entries carry;
// it must be non-zero. By default the build archive is verified to be
// reproducible first; pass merge.WithBuildReproducible(false) to have the
// verification pass patch instead.
//
// Example:
//
//	result, err := zipstamp.MergeFile(outputTs, lastWar, builtWar,
//	    merge.WithLogger(logger),
//	)
func MergeFile(outputTimestamp time.Time, lastBuildArchive, buildArchive string, opts ...merge.Option) (*merge.FileResult, error) {
	return merge.MergeFile(outputTimestamp, lastBuildArchive, buildArchive, opts...)
}

// MergeDirectory pairs the archives of two directories by artifact
// identifier and merges each pair with MergeFile semantics.
//
// By default the directories must contain exactly the same identifier set;
// pass merge.WithRequireLastBuild(false) to instead skip (with a warning)
// build archives that have no last-build counterpart.
func MergeDirectory(outputTimestamp time.Time, lastBuildDir, buildDir string, opts ...merge.Option) (*merge.DirectoryResult, error) {
	return merge.MergeDirectory(outputTimestamp, lastBuildDir, buildDir, opts...)
}
