package tools

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/hlab/insight-tools/internal/httpkit"
)

// feedQuoteSource reads quotes straight from an RSS/Atom feed. Items
// are taken newest-first; the feed itself is the curation, so no
// query-side filtering is applied.
type feedQuoteSource struct {
	feedURL string
	parser  *gofeed.Parser
	logger  *slog.Logger
}

func newFeedQuoteSource(feedURL string, timeout time.Duration, logger *slog.Logger) *feedQuoteSource {
	parser := gofeed.NewParser()
	parser.Client = httpkit.NewClient(httpkit.WithTimeout(timeout))
	return &feedQuoteSource{
		feedURL: feedURL,
		parser:  parser,
		logger:  logger,
	}
}

func (s *feedQuoteSource) Fetch(ctx context.Context, query string, limit int) ([]Quote, error) {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	quotes := make([]Quote, 0, limit)
	for _, item := range feed.Items {
		if len(quotes) >= limit {
			break
		}
		q := itemToQuote(item, feed.Title)
		if q.Text == "" {
			continue
		}
		quotes = append(quotes, q)
	}

	s.logger.Debug("fetched quotes from feed", "feed", feed.Title, "count", len(quotes))
	return quotes, nil
}

func (s *feedQuoteSource) Probe(ctx context.Context) error {
	_, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	return err
}

// itemToQuote maps a feed item to a Quote. Quote feeds typically carry
// the quotation in the description and the speaker in the title.
func itemToQuote(item *gofeed.Item, feedTitle string) Quote {
	text := item.Description
	if text == "" {
		text = item.Title
	}

	author := ""
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	} else if text != item.Title {
		author = item.Title
	}
	if author == "" {
		author = "Unknown"
	}

	return Quote{
		Text:   collapseText(text),
		Author: author,
		Source: feedTitle,
	}
}

var reSpaces = regexp.MustCompile(`\s+`)

// collapseText strips HTML markup and collapses whitespace. Feed
// descriptions frequently arrive as HTML fragments.
func collapseText(s string) string {
	node, err := html.Parse(strings.NewReader(s))
	if err == nil {
		var b strings.Builder
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.TextNode {
				b.WriteString(n.Data)
				b.WriteString(" ")
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(node)
		s = b.String()
	}
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}
