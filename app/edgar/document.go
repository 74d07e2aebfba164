package edgar

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
)

// ErrNoDocument marks raw bodies with no recoverable ownership document.
var ErrNoDocument = errors.New("no ownership document found")

const (
	startMarker = "<ownershipDocument"
	endMarker   = "</ownershipDocument>"

	// Diagnostic snapshots are capped so a pathological filing cannot
	// fill the disk.
	snapshotLimit = 8 * 1024
)

var (
	xmlDeclPattern = regexp.MustCompile(`<\?xml[^>]*\?>`)

	// After escaping every ampersand, valid entity references have been
	// double-escaped; this undoes exactly those.
	escapedEntityPattern = regexp.MustCompile(`&amp;(amp|lt|gt|apos|quot|#[0-9]+|#x[0-9a-fA-F]+);`)
)

// Extractor recovers a well-formed ownership document from a raw, possibly
// malformed filing body. Filings in the wild embed the document inside a
// larger SGML wrapper, repeat the XML declaration mid-span, and leave bare
// ampersands in free-text fields; all of that is repaired before parsing.
type Extractor struct {
	snapshotDir string
}

func NewExtractor(snapshotDir string) *Extractor {
	return &Extractor{snapshotDir: snapshotDir}
}

// Run extracts and parses the ownership document span. On failure it
// returns a nil document and writes a bounded diagnostic snapshot;
// the snapshot write is best-effort and never fails the pipeline.
func (e *Extractor) Run(raw []byte, filingID string) (*xmlquery.Node, error) {
	repaired, err := RepairDocument(raw)
	if err != nil {
		e.writeSnapshot(filingID, raw)
		return nil, err
	}

	doc, err := xmlquery.Parse(strings.NewReader(repaired))
	if err != nil {
		e.writeSnapshot(filingID, raw)
		return nil, fmt.Errorf("failed to parse ownership document: %w", err)
	}

	return doc, nil
}

// RepairDocument isolates the ownership document span and fixes the malformed
// markup commonly seen in filings. The span runs from the first start marker
// to the last end marker: bodies can contain multiple similarly-shaped
// blocks, and anything narrower silently under-extracts.
func RepairDocument(raw []byte) (string, error) {
	body := string(raw)

	start := strings.Index(body, startMarker)
	end := strings.LastIndex(body, endMarker)
	if start < 0 || end < 0 || end < start {
		return "", ErrNoDocument
	}
	span := body[start : end+len(endMarker)]

	// Declarations are only legal before the root element; any inside the
	// span are wrapper debris.
	span = xmlDeclPattern.ReplaceAllString(span, "")

	return escapeBareAmpersands(span), nil
}

// escapeBareAmpersands turns every `&` that does not begin a recognized
// entity reference into `&amp;`, preserving valid references as-is.
func escapeBareAmpersands(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	return escapedEntityPattern.ReplaceAllString(s, "&$1;")
}

func (e *Extractor) writeSnapshot(filingID string, raw []byte) {
	if e.snapshotDir == "" {
		return
	}

	if err := os.MkdirAll(e.snapshotDir, 0o755); err != nil {
		slog.Warn("Failed to create snapshot directory", "dir", e.snapshotDir, "error", err)
		return
	}

	if len(raw) > snapshotLimit {
		raw = raw[:snapshotLimit]
	}

	name := fmt.Sprintf("%s-%d.txt", sanitizeSnapshotName(filingID), time.Now().Unix())
	path := filepath.Join(e.snapshotDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		slog.Warn("Failed to write diagnostic snapshot", "path", path, "error", err)
		return
	}

	slog.Debug("Diagnostic snapshot written", "filing", filingID, "path", path)
}

func sanitizeSnapshotName(filingID string) string {
	if filingID == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, filingID)
}
