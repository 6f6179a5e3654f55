package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zipstamp/zipstamp/artifact"
	"github.com/zipstamp/zipstamp/errs"
)

// DirectoryResult summarizes a directory-pair merge.
type DirectoryResult struct {
	// Archives holds one FileResult per merged pair, in identifier order.
	Archives []*FileResult

	// Unmatched lists build archives that had no last-build counterpart
	// (reachable only when the one-to-one pairing is not required).
	Unmatched []string
}

// candidate is one eligible archive found in a directory scan.
type candidate struct {
	name string
	path string
	id   artifact.Identifier
}

// MergeDirectory pairs the eligible archives of two directories by artifact
// identifier and merges each pair.
//
// With RequireLastBuild (the default) the two directories must contain
// exactly the same identifier set; otherwise build archives without a
// counterpart are skipped with a warning. All pairs share a single
// wall-time snapshot so their time decisions are consistent, and pairs are
// processed strictly sequentially.
func MergeDirectory(outputTimestamp time.Time, lastBuildDir, buildDir string, opts ...Option) (*DirectoryResult, error) {
	cfg, err := newConfig(outputTimestamp, opts...)
	if err != nil {
		return nil, err
	}

	return mergeDirectory(cfg, cfg.now().UnixMilli(), lastBuildDir, buildDir)
}

func mergeDirectory(cfg *config, nowMillis int64, lastBuildDir, buildDir string) (*DirectoryResult, error) {
	buildSet, err := scanDirectory(buildDir)
	if err != nil {
		return nil, err
	}

	lastSet, err := scanDirectory(lastBuildDir)
	if err != nil {
		if os.IsNotExist(err) && !cfg.requireLastBuild {
			lastSet = map[artifact.Identifier]candidate{}
		} else {
			return nil, err
		}
	}

	if cfg.requireLastBuild {
		if err := checkOneToOne(lastSet, buildSet); err != nil {
			return nil, err
		}
	}

	ordered := make([]candidate, 0, len(buildSet))
	for _, c := range buildSet {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].id.Compare(ordered[j].id) < 0
	})

	result := &DirectoryResult{}
	for _, buildArchive := range ordered {
		lastArchive, ok := lastSet[buildArchive.id.Key()]
		if !ok {
			cfg.logger.Warnf("no last-build archive for %s, leaving timestamps as built", buildArchive.name)
			result.Unmatched = append(result.Unmatched, buildArchive.name)
			continue
		}

		cfg.logger.Infof("merging %s against %s", buildArchive.path, lastArchive.path)
		fileResult, err := mergeFile(cfg, nowMillis, lastArchive.path, buildArchive.path)
		if err != nil {
			return nil, err
		}
		result.Archives = append(result.Archives, fileResult)
	}

	return result, nil
}

// scanDirectory finds the eligible archives of one directory, keyed by
// parsed identifier. Two archives mapping to the same identifier are a
// fatal configuration error.
func scanDirectory(dir string) (map[artifact.Identifier]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	found := make(map[artifact.Identifier]candidate)
	for _, entry := range entries {
		if entry.IsDir() || !artifact.IsArchiveName(entry.Name()) {
			continue
		}

		id, err := artifact.Parse(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dir, err)
		}

		c := candidate{name: entry.Name(), path: filepath.Join(dir, entry.Name()), id: id}
		key := id.Key()
		if prev, dup := found[key]; dup {
			return nil, fmt.Errorf("%s: %q and %q both map to %s: %w",
				dir, prev.name, c.name, id, errs.ErrDuplicateIdentifier)
		}
		found[key] = c
	}

	return found, nil
}

// checkOneToOne verifies the identifier sets of both directories are equal,
// reporting every archive missing on either side.
func checkOneToOne(lastSet, buildSet map[artifact.Identifier]candidate) error {
	var missingInBuild, missingInLastBuild []string
	for key, c := range lastSet {
		if _, ok := buildSet[key]; !ok {
			missingInBuild = append(missingInBuild, c.name)
		}
	}
	for key, c := range buildSet {
		if _, ok := lastSet[key]; !ok {
			missingInLastBuild = append(missingInLastBuild, c.name)
		}
	}

	if len(missingInBuild) == 0 && len(missingInLastBuild) == 0 {
		return nil
	}

	sort.Strings(missingInBuild)
	sort.Strings(missingInLastBuild)

	return &errs.NotOneToOneError{
		MissingInBuild:     missingInBuild,
		MissingInLastBuild: missingInLastBuild,
	}
}
