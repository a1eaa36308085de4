// Package scholar looks up scholarly publications through an arXiv-style
// Atom query API. Fewer results than requested is a partial success, not an
// error; the caller renders what was found.
package scholar

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"erik/internal/logging"

	"go.uber.org/zap"
)

const maxBodyBytes = 2 << 20

// Paper is one publication.
type Paper struct {
	Title    string
	Authors  []string
	Year     int
	Abstract string
	URL      string
}

// Client queries the publication index.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a scholar client for the given query endpoint.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: http.DefaultClient}
}

// atom mirrors the slice of the Atom schema we read.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string       `xml:"title"`
	Summary   string       `xml:"summary"`
	Published string       `xml:"published"`
	Authors   []atomAuthor `xml:"author"`
	Links     []atomLink   `xml:"link"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Lookup returns up to count papers matching the topic. When the index has
// fewer matches than requested, the shorter list is returned without error.
func (c *Client) Lookup(ctx context.Context, topic string, count int) ([]Paper, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if count <= 0 {
		count = 3
	}

	q := url.Values{}
	q.Set("search_query", "all:"+topic)
	q.Set("start", "0")
	q.Set("max_results", fmt.Sprint(count))
	reqURL := strings.TrimRight(c.BaseURL, "/") + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		papers = append(papers, entryToPaper(e))
	}
	logging.L().Debug("scholar lookup completed",
		zap.Int("requested", count), zap.Int("found", len(papers)))
	return papers, nil
}

func entryToPaper(e atomEntry) Paper {
	p := Paper{
		Title:    collapseSpace(e.Title),
		Abstract: collapseSpace(e.Summary),
	}
	for _, a := range e.Authors {
		if a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		p.Year = t.Year()
	}
	// Prefer the alternate (abstract page) link, fall back to any href.
	for _, l := range e.Links {
		if l.Rel == "alternate" || l.Type == "text/html" {
			p.URL = l.Href
			break
		}
	}
	if p.URL == "" && len(e.Links) > 0 {
		p.URL = e.Links[0].Href
	}
	return p
}

// collapseSpace normalizes the newline-wrapped text arXiv returns.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
