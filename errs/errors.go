// Package errs defines the error values shared across the zipstamp packages.
//
// Callers are expected to match errors with errors.Is against the exported
// sentinels. Errors that need structured context (offsets, entry names,
// missing identifier lists) are dedicated types that unwrap to their
// sentinel, so both errors.Is and errors.As work on them.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse indicates a filename could not be decomposed into
	// (artifactId, classifier, type), or a field violated its grammar.
	ErrParse = errors.New("cannot parse artifact filename")

	// ErrDuplicateIdentifier indicates two archives in one directory share
	// the same artifact identifier.
	ErrDuplicateIdentifier = errors.New("duplicate artifact identifier")

	// ErrNotOneToOne indicates the two directories' identifier sets differ
	// while a one-to-one pairing is required.
	ErrNotOneToOne = errors.New("archives are not one-to-one across directories")

	// ErrZipFormat indicates a malformed ZIP: missing end-of-central-directory
	// record, truncated headers, duplicate central entries, a ZIP64 sentinel,
	// or invalid lengths.
	ErrZipFormat = errors.New("invalid zip format")

	// ErrNoTimestamp indicates an entry whose DOS time field holds no valid
	// timestamp.
	ErrNoTimestamp = errors.New("zip entry has no timestamp")

	// ErrNotReproducible indicates an entry's time does not equal the output
	// timestamp at DOS quantum while reproducibility is being verified.
	ErrNotReproducible = errors.New("build archive is not reproducible")

	// ErrExtendedTimestamp indicates an entry carries an extended-timestamp
	// extra field (header id 0x5455), which this engine refuses to patch.
	ErrExtendedTimestamp = errors.New("extended timestamp extra field is not supported")

	// ErrDuplicateName indicates a name occurs more than once in the
	// last-build archive during a merge.
	ErrDuplicateName = errors.New("duplicate entry name in last-build archive")

	// ErrCentralDirectoryMismatch indicates a central header's raw filename
	// does not match the corresponding local header's raw filename.
	ErrCentralDirectoryMismatch = errors.New("central directory filename mismatch")

	// ErrUnexpectedData indicates a patch verification read did not see the
	// expected bytes.
	ErrUnexpectedData = errors.New("unexpected data at patch offset")

	// ErrDosTimeRange indicates an instant outside the representable DOS
	// time range (1980-2107).
	ErrDosTimeRange = errors.New("instant is not representable as DOS time")

	// ErrUnsupportedMethod indicates an entry uses a compression method the
	// decompressor registry cannot decode.
	ErrUnsupportedMethod = errors.New("unsupported compression method")
)

// NotReproducibleError reports the first entry whose timestamp deviates from
// the declared output timestamp.
type NotReproducibleError struct {
	Archive      string
	EntryName    string
	EntryTime    int64 // ms since epoch, rounded to the DOS quantum
	ExpectedTime int64 // ms since epoch, rounded to the DOS quantum
}

func (e *NotReproducibleError) Error() string {
	return fmt.Sprintf("%s: entry %q has time %d, expected %d: %v",
		e.Archive, e.EntryName, e.EntryTime, e.ExpectedTime, ErrNotReproducible)
}

func (e *NotReproducibleError) Unwrap() error { return ErrNotReproducible }

// UnexpectedDataError reports a failed patch verification read. Expected and
// Actual carry the raw field bytes; ExpectedText and ActualText carry the
// bytes decoded as DOS date+time for operator diagnosis.
type UnexpectedDataError struct {
	Archive      string
	Offset       int64
	Expected     []byte
	Actual       []byte
	ExpectedText string
	ActualText   string
}

func (e *UnexpectedDataError) Error() string {
	return fmt.Sprintf("%s: offset %d: expected % X (%s), found % X (%s): %v",
		e.Archive, e.Offset, e.Expected, e.ExpectedText, e.Actual, e.ActualText, ErrUnexpectedData)
}

func (e *UnexpectedDataError) Unwrap() error { return ErrUnexpectedData }

// NotOneToOneError lists the identifiers missing on each side of a
// directory pair.
type NotOneToOneError struct {
	MissingInBuild     []string // present in last build, absent from build
	MissingInLastBuild []string // present in build, absent from last build
}

func (e *NotOneToOneError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrNotOneToOne.Error())
	if len(e.MissingInBuild) > 0 {
		fmt.Fprintf(&sb, "; missing in build: %s", strings.Join(e.MissingInBuild, ", "))
	}
	if len(e.MissingInLastBuild) > 0 {
		fmt.Fprintf(&sb, "; missing in last build: %s", strings.Join(e.MissingInLastBuild, ", "))
	}

	return sb.String()
}

func (e *NotOneToOneError) Unwrap() error { return ErrNotOneToOne }
