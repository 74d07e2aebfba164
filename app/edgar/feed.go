package edgar

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// ErrFeedUnavailable marks cycle-fatal feed failures: the feed could not be
// retrieved or its envelope could not be parsed. Nothing is salvageable from
// such a cycle; the next scheduled run retries.
var ErrFeedUnavailable = errors.New("feed unavailable")

// FeedClient polls the EDGAR current-events Atom feed. Every poll carries
// its own timeout; a stalled feed server fails the cycle instead of
// blocking it.
type FeedClient struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	feedURL      string
	userAgent    string
	timeout      time.Duration
}

func NewFeedClient(httpClient *http.Client, feedURL, userAgent string, timeout time.Duration) *FeedClient {
	return &FeedClient{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		feedURL:      feedURL,
		userAgent:    userAgent,
		timeout:      timeout,
	}
}

// Poll retrieves and parses the feed, returning entries in feed order.
func (c *FeedClient) Poll(ctx context.Context) ([]Entry, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFeedUnavailable, err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d %s", ErrFeedUnavailable, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read feed body: %v", ErrFeedUnavailable, err)
	}

	feed, err := c.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed: %v", ErrFeedUnavailable, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		entries = append(entries, Entry{
			ID:        cmp.Or(item.GUID, item.Link),
			Title:     item.Title,
			UpdatedAt: entryTimestamp(item),
			IndexURL:  item.Link,
		})
	}

	return entries, nil
}

func entryTimestamp(item *gofeed.Item) time.Time {
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	return time.Now().UTC()
}
