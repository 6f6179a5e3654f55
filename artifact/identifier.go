// Package artifact parses build-artifact filenames into the identifier that
// pairs archives across two build directories.
//
// A filename like "artifact-1.2.3-SNAPSHOT-javadoc.jar" decomposes into the
// artifactId ("artifact"), an optional classifier ("javadoc") and the type
// ("jar"). The version is deliberately not part of the identifier: the same
// artifact from two builds pairs up even when the version changed.
package artifact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zipstamp/zipstamp/errs"
)

// archiveTypes lists the filename suffixes eligible for merging. The match
// is case-insensitive. ".pom" files pair by identifier too but carry no
// entries to merge, so they are excluded.
var archiveTypes = []string{".aar", ".jar", ".war", ".zip"}

// classifierPattern captures a trailing classifier: the longest run of
// lowercase letters or hyphens that follows a "-" and reaches the end of the
// filename with its type suffix removed ("-test-javadoc" yields
// "test-javadoc").
var classifierPattern = regexp.MustCompile(`-([a-z-]+)$`)

// Identifier is the pairing key between archives of two directories.
type Identifier struct {
	ArtifactID string
	Classifier string
	Type       string
}

// String renders the identifier in filename-like form, without a version.
func (id Identifier) String() string {
	if id.Classifier == "" {
		return id.ArtifactID + "." + id.Type
	}

	return id.ArtifactID + "-" + id.Classifier + "." + id.Type
}

// Compare orders identifiers: case-insensitively by artifactId, then by
// classifier (constrained to lowercase already), then case-insensitively by
// type.
func (id Identifier) Compare(other Identifier) int {
	if c := compareIgnoreCase(id.ArtifactID, other.ArtifactID); c != 0 {
		return c
	}
	if c := strings.Compare(id.Classifier, other.Classifier); c != 0 {
		return c
	}

	return compareIgnoreCase(id.Type, other.Type)
}

// Key is the equality form of the identifier, folding the case-insensitive
// fields. Identifiers with equal keys pair up across directories.
func (id Identifier) Key() Identifier {
	return Identifier{
		ArtifactID: strings.ToLower(id.ArtifactID),
		Classifier: id.Classifier,
		Type:       strings.ToLower(id.Type),
	}
}

func compareIgnoreCase(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// IsArchiveName reports whether a filename is eligible for merging: its
// lowercase form must end in one of the supported archive suffixes.
// Trailing whitespace breaks the suffix match and thus rejects the name.
func IsArchiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range archiveTypes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}

// ParseType extracts the type from a filename: the substring after the
// final '.', which must be non-empty and consist of ASCII letters only.
func ParseType(filename string) (string, error) {
	dot := strings.LastIndexByte(filename, '.')
	if dot < 0 {
		return "", fmt.Errorf("%q has no type suffix: %w", filename, errs.ErrParse)
	}

	typ := filename[dot+1:]
	if typ == "" {
		return "", fmt.Errorf("%q has an empty type: %w", filename, errs.ErrParse)
	}
	for i := 0; i < len(typ); i++ {
		c := typ[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return "", fmt.Errorf("%q has a non-letter type %q: %w", filename, typ, errs.ErrParse)
		}
	}

	return typ, nil
}

// Parse decomposes a filename into its identifier.
//
// The artifactId is everything before the first hyphen that is immediately
// followed by a digit (the start of the version). The classifier, when
// present, is the trailing run of lowercase letters or hyphens between the
// version and the type suffix.
func Parse(filename string) (Identifier, error) {
	typ, err := ParseType(filename)
	if err != nil {
		return Identifier{}, err
	}

	artifactID, err := parseArtifactID(filename)
	if err != nil {
		return Identifier{}, err
	}

	base := strings.TrimSuffix(filename, "."+typ)
	classifier := ""
	if m := classifierPattern.FindStringSubmatch(base); m != nil {
		classifier = m[1]
	}

	return Identifier{ArtifactID: artifactID, Classifier: classifier, Type: typ}, nil
}

func parseArtifactID(filename string) (string, error) {
	for i := 0; i+1 < len(filename); i++ {
		if filename[i] != '-' {
			continue
		}
		if c := filename[i+1]; c >= '0' && c <= '9' {
			if i == 0 {
				return "", fmt.Errorf("%q has an empty artifactId: %w", filename, errs.ErrParse)
			}

			return filename[:i], nil
		}
	}

	return "", fmt.Errorf("%q has no version separator: %w", filename, errs.ErrParse)
}
