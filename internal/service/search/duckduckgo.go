package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/zhouzirui/agentdesk/backend/internal/config"
)

// NoResults is the text returned when the engine finds nothing.
const NoResults = "No good DuckDuckGo Search Result was found"

const defaultMaxResults = 4

// Searcher answers a general-knowledge query with raw result text.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Result is one organic search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// DuckDuckGo searches the DuckDuckGo HTML endpoint, which needs no API key.
type DuckDuckGo struct {
	httpClient *http.Client
	baseURL    string
	maxResults int
}

// NewDuckDuckGo builds a searcher from configuration.
func NewDuckDuckGo(cfg config.SearchConfig) *DuckDuckGo {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DuckDuckGo{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		maxResults: defaultMaxResults,
	}
}

// Search returns the snippets of the top results joined by a space.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	results, err := d.Results(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return NoResults, nil
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		if r.Snippet != "" {
			snippets = append(snippets, r.Snippet)
		}
	}
	if len(snippets) == 0 {
		return NoResults, nil
	}
	return strings.Join(snippets, " "), nil
}

// Results performs the request and parses the organic results.
func (d *DuckDuckGo) Results(ctx context.Context, query string) ([]Result, error) {
	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	results, err := parseResults(string(body), d.maxResults)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("component", "search").Str("query", query).Int("results", len(results)).Msg("web search completed")
	return results, nil
}

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
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") && !hasClass(n, "result--ad") {
			if r := extractResult(n); r.Title != "" {
				results = append(results, r)
			}
			return
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
			switch {
			case hasClass(n, "result__a"):
				r.Title = textContent(n)
				r.URL = cleanURL(attr(n, "href"))
			case hasClass(n, "result__snippet"):
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

// cleanURL unwraps DuckDuckGo redirect links.
func cleanURL(raw string) string {
	if !strings.Contains(raw, "duckduckgo.com/l/?") {
		return raw
	}
	if !strings.HasPrefix(raw, "http") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return raw
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
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
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
