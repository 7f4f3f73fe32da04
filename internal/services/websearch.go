package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wellness-assistant/wellness-web-ui/internal/models"
)

// WebSearch looks a question up on DuckDuckGo, restricted to trusted health sites, and reports which of
// them appear in the results.
type WebSearch struct {
	endpoint string
	client   *http.Client

	logger *slog.Logger
}

// SearchResult is what a web search contributes to a generation.
type SearchResult struct {
	// Context is the head of the result page, appended to the prompt.
	Context string
	Sources []models.WebSource
}

type trustedSite struct {
	name   string
	domain string
}

const (
	duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

	searchTimeout      = 15 * time.Second
	searchContextChars = 500
	maxSearchBody      = 1 << 20
)

// searchSites restrict the query.
var searchSites = []string{"cdc.gov", "who.int", "nih.gov", "mayoclinic.org", "health.harvard.edu"}

// reportedSites are the sites detected in the results, in report order.
var reportedSites = []trustedSite{
	{name: "CDC", domain: "cdc.gov"},
	{name: "WHO", domain: "who.int"},
	{name: "NIH", domain: "nih.gov"},
	{name: "Mayo Clinic", domain: "mayoclinic.org"},
}

// NewWebSearch creates a WebSearch. An empty endpoint keeps DuckDuckGo's HTML endpoint.
func NewWebSearch(endpoint string, logger *slog.Logger) WebSearch {
	if endpoint == "" {
		endpoint = duckDuckGoEndpoint
	}
	return WebSearch{
		endpoint: endpoint,
		client:   &http.Client{Timeout: searchTimeout},
		logger:   logger.With(slog.String("module", "websearch")),
	}
}

// Search runs query against the trusted sites. A failed search is logged and yields an empty result, so
// callers can go on without web context.
func (w WebSearch) Search(ctx context.Context, query string) SearchResult {
	res, err := w.search(ctx, query)
	if err != nil {
		w.logger.Error("Web search failed", slog.String(errLoggerKey, err.Error()))
		return SearchResult{}
	}
	return res
}

func (w WebSearch) search(ctx context.Context, query string) (SearchResult, error) {
	sites := make([]string, len(searchSites))
	for i, s := range searchSites {
		sites[i] = "site:" + s
	}
	q := query + " " + strings.Join(sites, " OR ")

	u, err := url.Parse(w.endpoint)
	if err != nil {
		return SearchResult{}, fmt.Errorf("invalid search endpoint: %w", err)
	}
	params := u.Query()
	params.Set("q", q)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return SearchResult{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return SearchResult{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBody))
	if err != nil {
		return SearchResult{}, fmt.Errorf("error reading response: %w", err)
	}
	page := string(body)
	lower := strings.ToLower(page)

	res := SearchResult{Sources: []models.WebSource{}}
	for _, s := range reportedSites {
		if strings.Contains(lower, s.domain) {
			res.Sources = append(res.Sources, models.WebSource{Name: s.name, URL: s.domain})
		}
	}

	res.Context = truncateRunes(page, searchContextChars)
	return res, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
