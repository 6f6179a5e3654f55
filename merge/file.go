// Package merge decides and applies per-entry timestamp updates between the
// archives of two successive builds.
//
// A merge of one archive pair runs in two passes. Pass A establishes that
// the build archive is reproducible: every entry's DOS time equals the
// declared output timestamp, either verified (the default) or patched into
// place. Pass B then walks the build archive in physical order, compares
// each entry with its last-build counterpart, and rewinds the timestamps of
// unchanged entries to their last-build values so downstream consumers see
// a change only when content actually changed. All mutation happens through
// verified 4-byte in-place patches of the DOS time fields; archives are
// never rewritten.
package merge

import (
	"bytes"
	"fmt"
	"time"

	"github.com/zipstamp/zipstamp/dostime"
	"github.com/zipstamp/zipstamp/errs"
	"github.com/zipstamp/zipstamp/patch"
	"github.com/zipstamp/zipstamp/zipfmt"
)

// FileResult summarizes one archive-pair merge.
type FileResult struct {
	// Archive is the path of the merged (mutated) build archive.
	Archive string

	// Entries is the number of entries walked in pass B.
	Entries int

	// NewEntries counts build entries with no last-build counterpart.
	NewEntries int

	// UpdatedEntries counts entries whose content changed.
	UpdatedEntries int

	// PreservedEntries counts entries whose last-build timestamp was kept.
	PreservedEntries int

	// ReproduciblePatches counts pass-A patches (zero when verifying).
	ReproduciblePatches int

	// MergePatches counts pass-B patches.
	MergePatches int
}

// MergeFile merges the timestamps of one archive pair.
//
// outputTimestamp is the reference instant for reproducible entries and
// must be non-zero. The build archive at buildPath is mutated in place; the
// last-build archive is only read.
func MergeFile(outputTimestamp time.Time, lastBuildPath, buildPath string, opts ...Option) (*FileResult, error) {
	cfg, err := newConfig(outputTimestamp, opts...)
	if err != nil {
		return nil, err
	}

	return mergeFile(cfg, cfg.now().UnixMilli(), lastBuildPath, buildPath)
}

func mergeFile(cfg *config, nowMillis int64, lastBuildPath, buildPath string) (*FileResult, error) {
	codec := dostime.NewCodec(cfg.location)
	outputRounded := dostime.RoundDownToQuantum(cfg.outputTimestamp.UnixMilli())
	nowRounded := dostime.RoundDownToQuantum(nowMillis)

	result := &FileResult{Archive: buildPath}

	if err := ensureReproducible(cfg, codec, buildPath, outputRounded, result); err != nil {
		return nil, err
	}
	if err := mergeEntries(cfg, codec, lastBuildPath, buildPath, nowRounded, result); err != nil {
		return nil, err
	}

	return result, nil
}

// ensureReproducible is pass A: every entry of the build archive must carry
// the output timestamp before the merge proper starts. In verify mode a
// deviation is fatal; in patch mode it is patched into place.
func ensureReproducible(cfg *config, codec dostime.Codec, buildPath string, outputRounded int64, result *FileResult) error {
	build, err := zipfmt.Open(buildPath)
	if err != nil {
		return err
	}

	var patches patch.Set
	var target [dostime.FieldSize]byte
	if !cfg.buildReproducible {
		target, err = codec.Pack(cfg.outputTimestamp.UnixMilli())
		if err != nil {
			build.Close()
			return fmt.Errorf("output timestamp: %w", err)
		}
	}

	for _, entry := range build.Entries() {
		if err := checkEntryInvariants(buildPath, entry); err != nil {
			build.Close()
			return err
		}

		entryMillis, err := codec.Unpack(entry.TimeBytes)
		if err != nil {
			build.Close()
			return fmt.Errorf("%s: entry %q: %w", buildPath, entry.Name, err)
		}

		if cfg.buildReproducible {
			if entryMillis != outputRounded {
				build.Close()
				return &errs.NotReproducibleError{
					Archive:      buildPath,
					EntryName:    entry.Name,
					EntryTime:    entryMillis,
					ExpectedTime: outputRounded,
				}
			}
			cfg.logger.Debugf("validate reproducible: %s!%s at %s", buildPath, entry.Name, codec.Format(entry.TimeBytes))
			continue
		}

		if target == entry.TimeBytes {
			cfg.logger.Debugf("patch to reproducible: %s!%s already at output quantum", buildPath, entry.Name)
			continue
		}
		cfg.logger.Debugf("patch to reproducible: %s!%s %s -> %s",
			buildPath, entry.Name, codec.Format(entry.TimeBytes), codec.Format(target))
		patches.Add(entry.LocalOffset+zipfmt.LocalHeaderTimeOffset, entry.TimeBytes[:], target[:])
		patches.Add(entry.CentralOffset+zipfmt.CentralHeaderTimeOffset, entry.TimeBytes[:], target[:])
	}

	// The read handle must be released before the archive is reopened for
	// writing.
	if err := build.Close(); err != nil {
		return err
	}

	result.ReproduciblePatches = patches.Len()
	return patches.Apply(buildPath, codec)
}

// mergeEntries is pass B: walk the (now reproducible) build archive in
// physical order, decide per entry, and patch deviating timestamps.
func mergeEntries(cfg *config, codec dostime.Codec, lastBuildPath, buildPath string, nowRounded int64, result *FileResult) error {
	build, err := zipfmt.Open(buildPath)
	if err != nil {
		return err
	}
	defer build.Close()

	lastBuild, err := zipfmt.Open(lastBuildPath)
	if err != nil {
		return err
	}
	defer lastBuild.Close()

	index := build.CentralIndex()

	lastByName := make(map[string][]*zipfmt.Entry, len(lastBuild.Entries()))
	for _, entry := range lastBuild.Entries() {
		lastByName[entry.Name] = append(lastByName[entry.Name], entry)
	}

	var patches patch.Set
	for _, entry := range build.Entries() {
		result.Entries++

		lastEntries := lastByName[entry.Name]
		if len(lastEntries) == 0 {
			cfg.logger.Infof("new entry %s!%s, keeping output timestamp", buildPath, entry.Name)
			result.NewEntries++
			continue
		}
		if len(lastEntries) > 1 {
			return fmt.Errorf("%s: entry %q occurs %d times: %w",
				lastBuildPath, entry.Name, len(lastEntries), errs.ErrDuplicateName)
		}
		lastEntry := lastEntries[0]

		if err := checkEntryInvariants(buildPath, entry); err != nil {
			return err
		}

		buildMillis, err := codec.Unpack(entry.TimeBytes)
		if err != nil {
			return fmt.Errorf("%s: entry %q: %w", buildPath, entry.Name, err)
		}
		lastMillis, err := codec.Unpack(lastEntry.TimeBytes)
		if err != nil {
			return fmt.Errorf("%s: entry %q: %w", lastBuildPath, lastEntry.Name, err)
		}

		if buildMillis > nowRounded {
			cfg.logger.Warnf("entry %s!%s has future timestamp %s", buildPath, entry.Name, codec.Format(entry.TimeBytes))
		}
		if lastMillis > nowRounded {
			cfg.logger.Warnf("entry %s!%s has future timestamp %s", lastBuildPath, lastEntry.Name, codec.Format(lastEntry.TimeBytes))
		}

		updated, err := entryUpdated(build, lastBuild, entry, lastEntry)
		if err != nil {
			return err
		}

		// The target time: updated entries keep the build time when the
		// last build was older, and take the current time otherwise so an
		// observed change timestamp never moves backwards. Unchanged
		// entries keep their last-build time, even a future one.
		var expectedMillis int64
		if updated {
			result.UpdatedEntries++
			if lastMillis < buildMillis {
				expectedMillis = buildMillis
			} else {
				expectedMillis = nowRounded
			}
		} else {
			result.PreservedEntries++
			expectedMillis = lastMillis
		}

		if buildMillis == expectedMillis {
			cfg.logger.Debugf("merge: %s!%s unchanged at %s", buildPath, entry.Name, codec.Format(entry.TimeBytes))
			continue
		}

		target, err := codec.Pack(expectedMillis)
		if err != nil {
			return fmt.Errorf("%s: entry %q: %w", buildPath, entry.Name, err)
		}
		if target == entry.TimeBytes {
			// Distinct instants can pack to the same field across a DST
			// repeat; the bytes are already correct then.
			continue
		}

		record, ok := index.Lookup(entry.LocalOffset)
		if !ok {
			return fmt.Errorf("%s: no central record for local offset %d: %w",
				buildPath, entry.LocalOffset, errs.ErrZipFormat)
		}
		if !bytes.Equal(record.RawName, entry.RawName) {
			return fmt.Errorf("%s: central record at %d names %q, local header names %q: %w",
				buildPath, record.CentralOffset, record.RawName, entry.RawName, errs.ErrCentralDirectoryMismatch)
		}

		cfg.logger.Debugf("merge: %s!%s %s -> %s",
			buildPath, entry.Name, codec.Format(entry.TimeBytes), codec.Format(target))
		patches.Add(entry.LocalOffset+zipfmt.LocalHeaderTimeOffset, entry.TimeBytes[:], target[:])
		patches.Add(record.CentralOffset+zipfmt.CentralHeaderTimeOffset, entry.TimeBytes[:], target[:])
	}

	result.MergePatches = patches.Len()

	// Release the read handles before mutating the archive.
	if err := lastBuild.Close(); err != nil {
		return err
	}
	if err := build.Close(); err != nil {
		return err
	}

	return patches.Apply(buildPath, codec)
}

// checkEntryInvariants rejects entries this engine must not touch: extended
// timestamps would contradict a patched DOS field, and a central time
// deviating from the local time means the two headers no longer describe
// the same write.
func checkEntryInvariants(archivePath string, entry *zipfmt.Entry) error {
	if entry.HasExtraID(zipfmt.ExtTimeExtraID) {
		return fmt.Errorf("%s: entry %q: %w", archivePath, entry.Name, errs.ErrExtendedTimestamp)
	}
	if entry.CentralTimeBytes != entry.TimeBytes {
		return fmt.Errorf("%s: entry %q: central time % X differs from local time % X: %w",
			archivePath, entry.Name, entry.CentralTimeBytes, entry.TimeBytes, errs.ErrZipFormat)
	}

	return nil
}
