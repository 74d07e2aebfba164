package edgar

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
)

const wellFormedDocument = `<?xml version="1.0"?>
<ownershipDocument>
  <schemaVersion>X0508</schemaVersion>
  <documentType>4</documentType>
  <periodOfReport>2025-08-12</periodOfReport>
  <issuer>
    <issuerCik>0000320193</issuerCik>
    <issuerName>Apple Inc.</issuerName>
    <issuerTradingSymbol>AAPL</issuerTradingSymbol>
  </issuer>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <transactionDate><value>2025-08-11</value></transactionDate>
      <transactionCoding>
        <transactionFormType>4</transactionFormType>
        <transactionCode>J</transactionCode>
      </transactionCoding>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`

func wrapInSubmission(doc string) string {
	return "<SEC-DOCUMENT>0000320193-25-000071.txt : 20250812\n" +
		"<DOCUMENT>\n<TYPE>4\n<SEQUENCE>1\n<FILENAME>wk-form4_1.xml\n<TEXT>\n" +
		doc +
		"\n</TEXT>\n</DOCUMENT>\n</SEC-DOCUMENT>\n"
}

func TestExtractorRun(t *testing.T) {
	extractor := NewExtractor(t.TempDir())

	doc, err := extractor.Run([]byte(wrapInSubmission(wellFormedDocument)), "0000320193-25-000071")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	symbol := xmlquery.FindOne(doc, "//issuerTradingSymbol")
	if symbol == nil || symbol.InnerText() != "AAPL" {
		t.Error("Expected to find issuer trading symbol AAPL in parsed document")
	}
}

func TestExtractorRun_DuplicateDeclarationAndBareAmpersand(t *testing.T) {
	// A duplicated declaration inside the span and a bare ampersand in a
	// free-text field are both common in real filings; extraction must
	// survive them and keep the ampersand as literal text.
	malformed := `<ownershipDocument>
  <periodOfReport>2025-08-12</periodOfReport>
  <?xml version="1.0"?>
  <issuer>
    <issuerName>Procter & Gamble Co</issuerName>
    <issuerTradingSymbol>PG</issuerTradingSymbol>
  </issuer>
  <remarks>Shares held by Smith & Co. Trust &amp; family</remarks>
</ownershipDocument>`

	extractor := NewExtractor(t.TempDir())
	doc, err := extractor.Run([]byte(wrapInSubmission(malformed)), "test-filing")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	name := xmlquery.FindOne(doc, "//issuerName")
	if name == nil {
		t.Fatal("Expected to find issuer name")
	}
	if name.InnerText() != "Procter & Gamble Co" {
		t.Errorf("Expected ampersand preserved as literal text, got: %s", name.InnerText())
	}

	remarks := xmlquery.FindOne(doc, "//remarks")
	if remarks == nil {
		t.Fatal("Expected to find remarks")
	}
	if remarks.InnerText() != "Shares held by Smith & Co. Trust & family" {
		t.Errorf("Unexpected remarks text: %s", remarks.InnerText())
	}
}

func TestRepairDocument_OutermostSpan(t *testing.T) {
	// With multiple similarly-shaped blocks the correct target window runs
	// from the first start marker to the last end marker.
	body := wrapInSubmission(`<ownershipDocument>
  <issuer><issuerTradingSymbol>FIRST</issuerTradingSymbol></issuer>
</ownershipDocument>
garbage between blocks
<ownershipDocument>
  <issuer><issuerTradingSymbol>LAST</issuerTradingSymbol></issuer>
</ownershipDocument>`)

	repaired, err := RepairDocument([]byte(body))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(repaired, "FIRST") || !strings.Contains(repaired, "LAST") {
		t.Error("Expected the repaired span to cover first start marker through last end marker")
	}
	if strings.Contains(repaired, "<SEC-DOCUMENT>") {
		t.Error("Expected the wrapper to be trimmed away")
	}
}

func TestRepairDocument_NoDocument(t *testing.T) {
	_, err := RepairDocument([]byte("<SEC-DOCUMENT>just wrapper text</SEC-DOCUMENT>"))
	if !errors.Is(err, ErrNoDocument) {
		t.Errorf("Expected ErrNoDocument, got: %v", err)
	}
}

func TestEscapeBareAmpersands(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"A & B", "A &amp; B"},
		{"A &amp; B", "A &amp; B"},
		{"x &lt; y &gt; z", "x &lt; y &gt; z"},
		{"&#169; 2025", "&#169; 2025"},
		{"&#x1F4B0;", "&#x1F4B0;"},
		{"AT&T & Verizon", "AT&amp;T &amp; Verizon"},
	}

	for _, tc := range cases {
		if got := escapeBareAmpersands(tc.in); got != tc.want {
			t.Errorf("escapeBareAmpersands(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractorRun_SnapshotOnFailure(t *testing.T) {
	dir := t.TempDir()
	extractor := NewExtractor(dir)

	raw := []byte("<SEC-DOCUMENT>no ownership document in here</SEC-DOCUMENT>")
	if _, err := extractor.Run(raw, "0000000000-25-000001"); err == nil {
		t.Fatal("Expected extraction to fail")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read snapshot dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected one snapshot file, got %d", len(entries))
	}

	info, err := entries[0].Info()
	if err != nil {
		t.Fatalf("Failed to stat snapshot: %v", err)
	}
	if info.Size() > snapshotLimit {
		t.Errorf("Snapshot exceeds the %d byte cap: %d", snapshotLimit, info.Size())
	}
}

func TestExtractorRun_SnapshotBounded(t *testing.T) {
	dir := t.TempDir()
	extractor := NewExtractor(dir)

	raw := []byte(strings.Repeat("x", snapshotLimit*4))
	if _, err := extractor.Run(raw, "huge"); err == nil {
		t.Fatal("Expected extraction to fail")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read snapshot dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected one snapshot file, got %d", len(entries))
	}
	info, _ := entries[0].Info()
	if info.Size() != snapshotLimit {
		t.Errorf("Expected snapshot truncated to %d bytes, got %d", snapshotLimit, info.Size())
	}
}
