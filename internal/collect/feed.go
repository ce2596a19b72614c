// Package collect reads article URLs from RSS and Atom feeds.
package collect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// MaxPerFeed caps the entries taken from a single feed.
const MaxPerFeed = 20

// FeedEntry is one article announced by a feed.
type FeedEntry struct {
	URL           string
	Title         string
	PublishedDate string // YYYY-MM-DD or empty
	Source        string
}

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedReader parses RSS/Atom feeds into entries.
type FeedReader struct {
	parser *gofeed.Parser
}

// NewFeedReader creates a reader that fetches feeds with the given
// User-Agent and timeout.
func NewFeedReader(userAgent string, timeout time.Duration) *FeedReader {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}
	return &FeedReader{parser: parser}
}

// Read fetches feedURL and returns up to MaxPerFeed entries in feed order.
func (fr *FeedReader) Read(ctx context.Context, feedURL string) ([]FeedEntry, error) {
	feed, err := fr.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}
	return entries(feed, SourceName(feedURL)), nil
}

// Parse reads a feed document from r.
func (fr *FeedReader) Parse(r io.Reader, source string) ([]FeedEntry, error) {
	feed, err := fr.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return entries(feed, source), nil
}

// ReadAll reads every feed, skipping those that fail, and drops entries
// whose URL was already seen.
func (fr *FeedReader) ReadAll(ctx context.Context, feeds []FeedConfig) []FeedEntry {
	seen := make(map[string]bool)
	var all []FeedEntry

	for _, fc := range feeds {
		entries, err := fr.Read(ctx, fc.URL)
		if err != nil {
			zap.S().Warnf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}

		name := fc.Name
		if name == "" {
			name = SourceName(fc.URL)
		}

		added := 0
		for _, e := range entries {
			if seen[e.URL] {
				continue
			}
			seen[e.URL] = true
			e.Source = name
			all = append(all, e)
			added++
		}
		zap.S().Infof("Parsed %d entries from %s", added, name)
	}
	return all
}

func entries(feed *gofeed.Feed, source string) []FeedEntry {
	var out []FeedEntry
	for _, item := range feed.Items {
		if len(out) >= MaxPerFeed {
			break
		}
		if entry := parseItem(item, source); entry != nil {
			out = append(out, *entry)
		}
	}
	return out
}

func parseItem(item *gofeed.Item, source string) *FeedEntry {
	itemURL := strings.TrimSpace(item.Link)
	if itemURL == "" {
		itemURL = strings.TrimSpace(item.GUID)
	}
	if !isHTTPURL(itemURL) {
		return nil
	}

	var publishedDate string
	if item.PublishedParsed != nil {
		publishedDate = item.PublishedParsed.Format("2006-01-02")
	} else if item.UpdatedParsed != nil {
		publishedDate = item.UpdatedParsed.Format("2006-01-02")
	}

	return &FeedEntry{
		URL:           itemURL,
		Title:         strings.TrimSpace(item.Title),
		PublishedDate: publishedDate,
		Source:        source,
	}
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SourceName derives a display name from a feed URL's host.
func SourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds.", "export."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
