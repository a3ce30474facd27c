// Package parser fetches and extracts normalized book records from the
// crawled catalog site.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Houeta/book-watch/internal/models"
	"github.com/PuerkitoBio/goquery"
)

// Fetcher is the source-site surface consumed by the crawl orchestrator.
type Fetcher interface {
	// TotalPages discovers how many catalog pages the site currently has.
	TotalPages(ctx context.Context) (int, error)
	// BookURLs returns the absolute URLs of all books listed on the given page.
	BookURLs(ctx context.Context, page int) ([]string, error)
	// FetchBook downloads one book page and extracts a normalized record.
	FetchBook(ctx context.Context, bookURL string) (*models.BookData, error)
}

type Parser struct {
	log        *slog.Logger
	client     *http.Client
	baseURL    string
	retryLimit int
	backoff    time.Duration
}

var (
	priceRe   = regexp.MustCompile(`[\d.]+`)
	reviewsRe = regexp.MustCompile(`\d+`)
	slugRe    = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// ratingWords maps the star-rating CSS class to its numeric value by index.
var ratingWords = []string{"Zero", "One", "Two", "Three", "Four", "Five"}

// NewParser creates a parser for the catalog at baseURL. Every page
// fetch is bounded by timeout and retried up to retryLimit times with
// exponential backoff before the failure is reported to the caller.
func NewParser(log *slog.Logger, baseURL string, retryLimit int, timeout time.Duration) *Parser {
	return &Parser{
		log:        log,
		client:     &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		retryLimit: retryLimit,
		backoff:    time.Second,
	}
}

// TotalPages fetches the catalog front page and reads the pagination
// footer ("Page 1 of 50"). A site without pagination counts as one page.
func (p *Parser) TotalPages(ctx context.Context) (int, error) {
	const opn = "parser.TotalPages"

	doc, _, err := p.getDocument(ctx, p.baseURL)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to fetch front page: %w", opn, err)
	}

	text := strings.TrimSpace(doc.Find("li.current").Text())
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return 1, nil
	}

	total, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		p.log.WarnContext(ctx, "unparsable pagination footer, assuming a single page", "text", text)
		return 1, nil
	}

	return total, nil
}

// BookURLs returns the absolute book page URLs listed on the given catalog page.
func (p *Parser) BookURLs(ctx context.Context, page int) ([]string, error) {
	const opn = "parser.BookURLs"

	pageURL := fmt.Sprintf("%s/catalogue/page-%d.html", p.baseURL, page)
	doc, finalURL, err := p.getDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch page %d: %w", opn, page, err)
	}

	var bookURLs []string
	doc.Find("article.product_pod h3 a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		bookURLs = append(bookURLs, resolveURL(finalURL, href))
	})

	p.log.DebugContext(ctx, "Collected book URLs", "page", page, "count", len(bookURLs))

	return bookURLs, nil
}

// FetchBook downloads one book page and extracts its normalized record.
func (p *Parser) FetchBook(ctx context.Context, bookURL string) (*models.BookData, error) {
	const opn = "parser.FetchBook"

	doc, finalURL, err := p.getDocument(ctx, bookURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch book page: %w", opn, err)
	}

	book := extractBook(doc, finalURL)
	p.log.DebugContext(ctx, "Extracted book", "remote_book_id", book.RemoteBookID, "title", book.Title)

	return book, nil
}

// getDocument fetches a URL with retry and backoff and parses the body
// as HTML. It returns the final URL after redirects so relative links
// can be resolved correctly.
func (p *Parser) getDocument(ctx context.Context, rawURL string) (*goquery.Document, string, error) {
	var lastErr error

	for attempt := 0; attempt <= p.retryLimit; attempt++ {
		if attempt > 0 {
			wait := p.backoff * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return nil, "", fmt.Errorf("fetch canceled: %w", ctx.Err())
			case <-time.After(wait):
			}
		}

		doc, finalURL, err := p.getOnce(ctx, rawURL)
		if err == nil {
			return doc, finalURL, nil
		}
		lastErr = err

		var retryErr *retryableError
		if !errors.As(err, &retryErr) {
			return nil, "", err
		}
		p.log.WarnContext(ctx, "Retryable fetch failure", "url", rawURL, "attempt", attempt+1, "error", err)
	}

	return nil, "", fmt.Errorf("retries exhausted for %s: %w", rawURL, lastErr)
}

func (p *Parser) getOnce(ctx context.Context, rawURL string) (*goquery.Document, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create new request %s: %w", rawURL, err)
	}
	req.Header.Add("User-Agent", "Mozilla/5.0 (compatible; BookWatch/1.0)")

	res, err := p.client.Do(req)
	if err != nil {
		// Network and timeout failures are transient by definition.
		return nil, "", &retryableError{err: fmt.Errorf("failed to request %s: %w", rawURL, err)}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("status code error: [%d] %s", res.StatusCode, res.Status)
		if isRetryableStatus(res.StatusCode) {
			return nil, "", &retryableError{err: statusErr}
		}
		return nil, "", statusErr
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, "", fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	return doc, res.Request.URL.String(), nil
}

// retryableError wraps a transient fetch failure.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// extractBook pulls the normalized record out of a parsed book page.
func extractBook(doc *goquery.Document, pageURL string) *models.BookData {
	book := &models.BookData{SourceURL: pageURL}

	title := strings.TrimSpace(doc.Find("div.product_main h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = "Unknown Title"
	}
	book.Title = title

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		book.Description = strings.TrimSpace(desc)
	}
	if book.Description == "" {
		book.Description = strings.TrimSpace(doc.Find("#product_description").NextFiltered("p").Text())
	}

	book.Category = "General"
	crumbs := doc.Find("ul.breadcrumb a")
	if crumbs.Length() >= 2 { // skip "Home"
		book.Category = strings.TrimSpace(crumbs.Last().Text())
	}

	book.Price = parsePrice(doc.Find("p.price_color").First().Text())

	doc.Find("table.table-striped tr").Each(func(_ int, row *goquery.Selection) {
		header := strings.TrimSpace(row.Find("th").Text())
		data := strings.TrimSpace(row.Find("td").Text())
		switch {
		case strings.Contains(header, "Price (incl. tax)"):
			book.PriceIncludingTax = parsePrice(data)
		case strings.Contains(header, "Price (excl. tax)"):
			book.PriceExcludingTax = parsePrice(data)
		case strings.Contains(header, "Number of reviews"):
			if m := reviewsRe.FindString(data); m != "" {
				book.ReviewsCount, _ = strconv.Atoi(m)
			}
		}
	})

	stockText := strings.ToLower(strings.TrimSpace(doc.Find("p.instock.availability").Text()))
	book.InStock = strings.Contains(stockText, "in stock")

	if class, ok := doc.Find("p.star-rating").First().Attr("class"); ok {
		for _, word := range strings.Fields(class) {
			for idx, ratingWord := range ratingWords {
				if word == ratingWord {
					book.Rating = float64(idx)
				}
			}
		}
	}

	if src, ok := doc.Find("div.item.active img").First().Attr("src"); ok && src != "" {
		book.CoverImage = resolveURL(pageURL, src)
	}

	book.RemoteBookID = remoteBookID(pageURL, book.Title)

	return book
}

// parsePrice extracts the numeric part of a price string like "£51.77".
func parsePrice(text string) float64 {
	m := priceRe.FindString(text)
	if m == "" {
		return 0
	}
	price, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}

	return price
}

// remoteBookID derives a stable identifier from the catalogue URL path,
// falling back to a slug of the title.
func remoteBookID(pageURL, title string) string {
	if parsed, err := url.Parse(pageURL); err == nil {
		parts := strings.Split(parsed.Path, "/")
		for idx, part := range parts {
			if strings.HasPrefix(part, "catalogue") && idx+1 < len(parts) {
				next := parts[idx+1]
				if next != "" && !strings.HasPrefix(next, "index") {
					return strings.ReplaceAll(next, "_", "-")
				}
			}
		}
	}

	clean := slugRe.ReplaceAllString(title, "")
	slug := strings.ToLower(strings.ReplaceAll(clean, " ", "-"))
	const maxSlugLen = 50
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}

	return slug
}

// resolveURL resolves a possibly relative href against the page it was found on.
func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return baseURL.ResolveReference(ref).String()
}
