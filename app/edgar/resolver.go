package edgar

import (
	"fmt"
	"regexp"
	"strings"
)

// Canonical URL resolution. Every filing is addressed through one
// deterministic chain: the feed's index URL becomes the accession .txt URL,
// and the ownership XML filename embedded in the .txt body becomes the
// fetchable document URL. The accession number from the .txt URL is the
// stable filing identifier regardless of which URL variant reached us.

var xmlFilenamePattern = regexp.MustCompile(`<FILENAME>(\S+?\.xml)`)

// ResolveTxtURL maps a filing index URL to the accession .txt URL.
func ResolveTxtURL(indexURL string) (string, error) {
	for _, suffix := range []string{"-index.htm", "-index.html"} {
		if strings.HasSuffix(indexURL, suffix) {
			return strings.TrimSuffix(indexURL, suffix) + ".txt", nil
		}
	}
	return "", fmt.Errorf("not a filing index URL: %s", indexURL)
}

// ResolveXMLURL extracts the ownership XML filename from the .txt submission
// body and resolves it against the .txt URL's directory.
func ResolveXMLURL(txtURL string, txtBody []byte) (string, error) {
	match := xmlFilenamePattern.FindSubmatch(txtBody)
	if match == nil {
		return "", fmt.Errorf("no XML filename found in submission %s", txtURL)
	}

	slash := strings.LastIndex(txtURL, "/")
	if slash < 0 {
		return "", fmt.Errorf("malformed submission URL: %s", txtURL)
	}

	return txtURL[:slash] + "/" + string(match[1]), nil
}

// AccessionFromTxtURL derives the stable filing identifier from the canonical
// .txt URL. Identical for every URL variant of the same filing.
func AccessionFromTxtURL(txtURL string) string {
	segment := txtURL
	if slash := strings.LastIndex(txtURL, "/"); slash >= 0 {
		segment = txtURL[slash+1:]
	}
	return strings.TrimSuffix(segment, ".txt")
}
