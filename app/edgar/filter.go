package edgar

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// CodeFilter decides whether a filing carries one of the target transaction
// codes. Detection runs in two stages: a literal substring pre-check on the
// raw body rejects the overwhelming majority of filings before any repair or
// parsing happens, and a structural check over the parsed document confirms
// the code actually sits in a transaction code field rather than in
// commentary text. The pre-check is a necessary condition only; the
// structural check is the sufficient one.
type CodeFilter struct {
	codes   []string
	markers []string
}

func NewCodeFilter(codes []string) *CodeFilter {
	markers := make([]string, 0, len(codes))
	for _, code := range codes {
		markers = append(markers, "<transactionCode>"+code+"</transactionCode>")
	}
	return &CodeFilter{codes: codes, markers: markers}
}

func (f *CodeFilter) Codes() []string {
	return f.codes
}

// MatchesRaw is the cheap pre-check: a literal test for the serialized tag
// form of any target code. A false return means the filing cannot match and
// the extractor never needs to run.
func (f *CodeFilter) MatchesRaw(raw []byte) bool {
	body := string(raw)
	for _, marker := range f.markers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// MatchesDocument is the structural confirmation: accept when any
// transaction sub-record's code field equals a target code exactly.
// Case-sensitive, whole-value match.
func (f *CodeFilter) MatchesDocument(doc *xmlquery.Node) bool {
	for _, node := range xmlquery.Find(doc, "//transactionCode") {
		value := node.InnerText()
		for _, code := range f.codes {
			if value == code {
				return true
			}
		}
	}
	return false
}
