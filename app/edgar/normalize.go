package edgar

import (
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
)

// Normalize extracts the fields of interest from a parsed ownership document.
// Every field is null-safe: an absent element yields a zero value, never a
// failure. The filing date comes from the feed entry; the feed's publish time
// is authoritative for when the SEC processed the filing, independent of
// whatever dates the document itself claims.
func Normalize(doc *xmlquery.Node, entry Entry, filingID, xmlURL string) Filing {
	return Filing{
		FilingID:        filingID,
		Ticker:          findText(doc, "//issuerTradingSymbol"),
		CompanyName:     findText(doc, "//issuerName"),
		FilingDate:      entry.UpdatedAt,
		TransactionDate: transactionDate(doc),
		FilingURL:       xmlURL,
	}
}

// transactionDate resolves the document's trade date through an ordered
// fallback chain of decreasing specificity: the explicit transaction date,
// then the deemed execution date, then the reporting period.
func transactionDate(doc *xmlquery.Node) *time.Time {
	paths := []string{
		"//transactionDate/value",
		"//deemedExecutionDate/value",
		"//periodOfReport",
	}

	for _, path := range paths {
		if value := findText(doc, path); value != "" {
			if parsed := parseDocumentDate(value); parsed != nil {
				return parsed
			}
		}
	}

	return nil
}

// parseDocumentDate handles the date shapes seen in ownership documents:
// plain dates and date-times with a zone suffix.
func parseDocumentDate(value string) *time.Time {
	if len(value) > 10 {
		value = value[:10]
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &parsed
}

func findText(doc *xmlquery.Node, path string) string {
	node := xmlquery.FindOne(doc, path)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.InnerText())
}
