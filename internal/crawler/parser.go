package crawler

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"threadrelay/internal/config"
	"threadrelay/internal/models"
	"threadrelay/pkg/utils"

	"github.com/PuerkitoBio/goquery"
)

// ErrMissingField is returned when the rendered page lacks a required article field.
var ErrMissingField = errors.New("missing required field")

// Parser reads article fields from a rendered page.
type Parser struct {
	selectors config.SelectorConfig
}

// NewParser creates a parser for the given page selectors.
func NewParser(selectors config.SelectorConfig) *Parser {
	return &Parser{selectors: selectors}
}

// ParseArticle reads the title, publish time, body, canonical URL and the id
// derived from it. Every field is required; the first missing one fails the
// whole parse and no record is returned.
func (p *Parser) ParseArticle(r io.Reader) (models.Article, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	article := models.Article{
		Title:     p.text(doc, p.selectors.Title),
		CreatedAt: p.timestamp(doc),
		Content:   p.text(doc, p.selectors.Body),
		URL:       p.canonical(doc),
	}
	article.ID = articleIDFromURL(article.URL)

	fields := []struct {
		name  string
		value string
	}{
		{"title", article.Title},
		{"created_at", article.CreatedAt},
		{"content", article.Content},
		{"url", article.URL},
		{"id", article.ID},
	}

	for _, f := range fields {
		if f.value == "" {
			return models.Article{}, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	return article, nil
}

// ParseArticleHTML is ParseArticle over an in-memory page.
func (p *Parser) ParseArticleHTML(html string) (models.Article, error) {
	return p.ParseArticle(strings.NewReader(html))
}

func (p *Parser) text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// timestamp prefers the machine-readable datetime attribute over the display text.
func (p *Parser) timestamp(doc *goquery.Document) string {
	sel := doc.Find(p.selectors.Timestamp).First()

	if datetime, ok := sel.Attr("datetime"); ok && strings.TrimSpace(datetime) != "" {
		return strings.TrimSpace(datetime)
	}

	return strings.TrimSpace(sel.Text())
}

func (p *Parser) canonical(doc *goquery.Document) string {
	href, _ := doc.Find(p.selectors.Canonical).First().Attr("href")

	return strings.TrimSpace(href)
}

// articleIDFromURL returns the last path segment, ignoring query and fragment.
func articleIDFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return utils.LastPathSegment(u.Path)
}
