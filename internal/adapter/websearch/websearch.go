// Package websearch answers free-text questions the way the original study
// buddy did: run a DuckDuckGo HTML search, fetch the top hit, and join the
// first few paragraphs of the page. No caching, no retries; the caller's
// context bounds every call.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"erik/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxBodyBytes  = 1 << 20
	maxParagraphs = 5
)

// Result is a single search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Answer is the scraped answer for a query.
type Answer struct {
	Text      string
	SourceURL string
}

// Client calls the search provider. BaseURL points at a DuckDuckGo-style
// HTML endpoint so tests can stand up a local server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a search client for the given endpoint.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: http.DefaultClient}
}

// Search returns up to maxResults hits for the query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	searchURL := fmt.Sprintf("%s/?q=%s", strings.TrimRight(c.BaseURL, "/"), url.QueryEscape(query))
	body, err := c.get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results, err := parseResults(body, maxResults)
	if err != nil {
		return nil, err
	}
	// The query itself is user content; log only its size.
	logging.L().Debug("web search completed",
		zap.Int("results", len(results)), zap.Int("query_len", len(query)))
	return results, nil
}

// FetchAnswer searches for the query, fetches the top hit, and returns the
// first paragraphs of the page as the answer text.
func (c *Client) FetchAnswer(ctx context.Context, query string) (*Answer, error) {
	results, err := c.Search(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results found")
	}

	page, err := c.get(ctx, results[0].URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", results[0].URL, err)
	}

	text := firstParagraphs(page, maxParagraphs)
	if text == "" {
		// Fall back to the snippet when the page has no paragraph text.
		text = results[0].Snippet
	}
	if text == "" {
		return nil, fmt.Errorf("no readable content at %s", results[0].URL)
	}
	return &Answer{Text: text, SourceURL: results[0].URL}, nil
}

func (c *Client) get(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// parseResults extracts hits from DuckDuckGo HTML. Results live in divs with
// class "result results_links"; title and URL in an a.result__a, snippet in
// a.result__snippet.
func parseResults(htmlContent string, maxResults int) ([]Result, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			cls := attrValue(n, "class")
			if strings.Contains(cls, "result") && strings.Contains(cls, "results_links") {
				r := extractResult(n)
				if r.URL != "" && r.Title != "" {
					results = append(results, r)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results, nil
}

func extractResult(n *html.Node) Result {
	var r Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			cls := attrValue(n, "class")
			if strings.Contains(cls, "result__a") {
				r.URL = cleanRedirect(attrValue(n, "href"))
				r.Title = textContent(n)
			} else if strings.Contains(cls, "result__snippet") {
				r.Snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return r
}

// cleanRedirect unwraps DuckDuckGo's /l/?uddg= redirect URLs.
func cleanRedirect(u string) string {
	if strings.HasPrefix(u, "//duckduckgo.com/l/?uddg=") {
		if decoded, err := url.QueryUnescape(strings.TrimPrefix(u, "//duckduckgo.com/l/?uddg=")); err == nil {
			if idx := strings.Index(decoded, "&"); idx > 0 {
				decoded = decoded[:idx]
			}
			return decoded
		}
	}
	return u
}

// firstParagraphs joins the text of the first max <p> elements.
func firstParagraphs(htmlContent string, max int) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(parts) >= max {
			return
		}
		if n.Type == html.ElementNode && n.Data == "p" {
			if t := textContent(n); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " ")
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
