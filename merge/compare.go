package merge

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/zipstamp/zipstamp/compress"
	"github.com/zipstamp/zipstamp/errs"
	"github.com/zipstamp/zipstamp/internal/pool"
	"github.com/zipstamp/zipstamp/zipfmt"
)

// metaInfDir is the directory whose child-set comparison carves out a
// generated sitemap index (see directoryUpdated).
const (
	metaInfDir       = "META-INF/"
	sitemapIndexName = "sitemap-index.xml"
)

// entryUpdated decides whether the content behind a build entry differs
// from its last-build counterpart.
//
// The decision runs cheapest-first: uncompressed sizes, then directory
// child sets, then raw compressed streams, and only as a last resort the
// decompressed streams (two producers can emit different valid encodings of
// the same content, so raw inequality alone proves nothing unless the entry
// is stored).
func entryUpdated(build, lastBuild *zipfmt.Archive, buildEntry, lastEntry *zipfmt.Entry) (bool, error) {
	if buildEntry.UncompressedSize != lastEntry.UncompressedSize {
		return true, nil
	}

	if buildEntry.IsDir() && lastEntry.IsDir() {
		return directoryUpdated(build, lastBuild, buildEntry.Name)
	}

	if buildEntry.Method == lastEntry.Method {
		equal, err := rawStreamsEqual(buildEntry, lastEntry)
		if err != nil {
			return false, err
		}
		if equal {
			return false, nil
		}
		// For stored entries the raw bytes are the content; inequality is
		// conclusive.
		if buildEntry.Method == compress.MethodStore {
			return true, nil
		}
	}

	equal, err := decompressedStreamsEqual(buildEntry, lastEntry)
	if err != nil {
		return false, err
	}

	return !equal, nil
}

// directoryUpdated compares the immediate-children sets of the same
// directory in both archives.
//
// A sitemap index missing from the build side of META-INF/ is dropped from
// the comparison: a downstream generator adds that entry after this merge
// runs. The carve-out is asymmetric on purpose — an *added*
// sitemap-index.xml still marks the directory as updated.
func directoryUpdated(build, lastBuild *zipfmt.Archive, dirName string) (bool, error) {
	buildChildren, err := immediateChildren(build, dirName)
	if err != nil {
		return false, err
	}
	lastChildren, err := immediateChildren(lastBuild, dirName)
	if err != nil {
		return false, err
	}

	if dirName == metaInfDir {
		_, inLast := lastChildren[sitemapIndexName]
		_, inBuild := buildChildren[sitemapIndexName]
		if inLast && !inBuild {
			delete(lastChildren, sitemapIndexName)
		}
	}

	if len(buildChildren) != len(lastChildren) {
		return true, nil
	}
	for child := range buildChildren {
		if _, ok := lastChildren[child]; !ok {
			return true, nil
		}
	}

	return false, nil
}

// immediateChildren collects the direct child names of a directory entry:
// entries whose names extend the directory prefix by a fragment containing
// no further separator. A fragment seen twice is a format error.
func immediateChildren(a *zipfmt.Archive, dirName string) (map[string]struct{}, error) {
	children := make(map[string]struct{})
	for _, e := range a.Entries() {
		if !strings.HasPrefix(e.Name, dirName) {
			continue
		}
		fragment := e.Name[len(dirName):]
		if fragment == "" || strings.ContainsRune(fragment, '/') {
			continue
		}
		if _, dup := children[fragment]; dup {
			return nil, fmt.Errorf("%s: directory %q has duplicate child %q: %w",
				a.Path(), dirName, fragment, errs.ErrZipFormat)
		}
		children[fragment] = struct{}{}
	}

	return children, nil
}

func rawStreamsEqual(buildEntry, lastEntry *zipfmt.Entry) (bool, error) {
	if buildEntry.CompressedSize != lastEntry.CompressedSize {
		return false, nil
	}

	br := buildEntry.OpenRaw()
	defer br.Close()
	lr := lastEntry.OpenRaw()
	defer lr.Close()

	return streamsEqual(br, lr)
}

func decompressedStreamsEqual(buildEntry, lastEntry *zipfmt.Entry) (bool, error) {
	br, err := buildEntry.Open()
	if err != nil {
		return false, err
	}
	defer br.Close()

	lr, err := lastEntry.Open()
	if err != nil {
		return false, err
	}
	defer lr.Close()

	return streamsEqual(br, lr)
}

// streamsEqual reports whether two readers yield identical byte sequences,
// comparing chunkwise through pooled buffers.
func streamsEqual(r1, r2 io.Reader) (bool, error) {
	buf1 := pool.GetCompareBuffer()
	defer pool.PutCompareBuffer(buf1)
	buf2 := pool.GetCompareBuffer()
	defer pool.PutCompareBuffer(buf2)

	buf1.SetLength(pool.CompareBufferSize)
	buf2.SetLength(pool.CompareBufferSize)

	for {
		n1, err1 := io.ReadFull(r1, buf1.B)
		if err1 != nil && err1 != io.EOF && err1 != io.ErrUnexpectedEOF {
			return false, err1
		}
		n2, err2 := io.ReadFull(r2, buf2.B)
		if err2 != nil && err2 != io.EOF && err2 != io.ErrUnexpectedEOF {
			return false, err2
		}

		if n1 != n2 || !bytes.Equal(buf1.B[:n1], buf2.B[:n2]) {
			return false, nil
		}
		if err1 != nil || err2 != nil {
			return err1 != nil && err2 != nil, nil
		}
	}
}
