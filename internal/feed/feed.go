/*
Package feed fetches press-release feeds and converts their entries into news
items with a stable cross-run identity.
*/
package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/phuslu/log"

	"github.com/snagasawa/kabupost/internal/types"
)

const (
	fetchTimeout = 30 * time.Second
	fetchRetries = 3
	retryBackoff = 1500 * time.Millisecond
)

type Fetcher struct {
	parser *gofeed.Parser
}

func NewFetcher() *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: fetchTimeout}
	return &Fetcher{parser: parser}
}

// Fetch downloads and parses one feed, retrying with a fixed backoff before
// giving up. Failures are reported per feed so the caller can skip it and
// carry on with the rest.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]types.NewsItem, error) {
	var parsed *gofeed.Feed
	var err error

	for attempt := 1; attempt <= fetchRetries; attempt++ {
		parsed, err = f.parser.ParseURLWithContext(feedURL, ctx)
		if err == nil {
			break
		}
		if attempt < fetchRetries {
			log.Warn().Str("feed", feedURL).Int("attempt", attempt).Err(err).Msg("feed fetch failed, retrying")
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: feed %s: %v", types.ErrFetchFailed, feedURL, ctx.Err())
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: feed %s: %v", types.ErrFetchFailed, feedURL, err)
	}

	items := make([]types.NewsItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		items = append(items, types.NewsItem{
			UID:         UID(entry, feedURL),
			Title:       entry.Title,
			Summary:     entry.Description,
			Link:        entry.Link,
			PublishedAt: timestampOf(entry),
		})
	}
	return items, nil
}

// timestampOf picks the first available timestamp. gofeed folds the RDF
// created/date channels into PublishedParsed, so the published → updated
// order here covers all three channels of the wire formats involved.
func timestampOf(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed
	}
	return nil
}

// UID derives the cross-run fingerprint of a feed entry: the host the item
// links to (falling back to the feed's own host, then "unknown") joined with
// the entry's most stable identifier (guid, else link, else title). Title
// reuse across distinct items is an accepted false-negative trade-off.
func UID(entry *gofeed.Item, feedURL string) string {
	host := hostOf(entry.Link)
	if host == "" {
		host = hostOf(feedURL)
	}
	if host == "" {
		host = "unknown"
	}

	base := entry.GUID
	if base == "" {
		base = entry.Link
	}
	if base == "" {
		base = entry.Title
	}

	return host + "|" + base
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// IsRecent reports whether the item falls inside the freshness window,
// compared in the reference time zone. An item exactly on the boundary is
// still recent; an item with no timestamp at all is accepted rather than
// silently dropped.
func IsRecent(item types.NewsItem, now time.Time, window time.Duration, loc *time.Location) bool {
	if item.PublishedAt == nil {
		return true
	}
	ts := item.PublishedAt.In(loc)
	return now.In(loc).Sub(ts) <= window
}
