package crawler

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"threadrelay/internal/config"
	"threadrelay/internal/logger"
	"threadrelay/internal/models"
)

// ArticleExtractor produces the article record of a thread from its rendered page.
type ArticleExtractor struct {
	scraper *Scraper
	parser  *Parser
	logger  *logger.Logger
}

// NewArticleExtractor creates an extractor with injected dependencies.
func NewArticleExtractor(scraper *Scraper, parser *Parser, log *logger.Logger) *ArticleExtractor {
	return &ArticleExtractor{
		scraper: scraper,
		parser:  parser,
		logger:  log,
	}
}

// Extract reads the page named by src, from disk when src is a local file and
// over HTTP otherwise, and parses the article out of it.
func (e *ArticleExtractor) Extract(ctx context.Context, src config.SourceConfig) (models.Article, error) {
	if src.IsLocalFile() {
		return e.ExtractFromFile(src.File)
	}

	return e.ExtractFromURL(ctx, src.URL)
}

// ExtractFromURL fetches and parses a rendered article page.
func (e *ArticleExtractor) ExtractFromURL(ctx context.Context, pageURL string) (models.Article, error) {
	e.logger.Info("fetching article page", "url", pageURL)

	body, err := e.scraper.Get(ctx, pageURL, nil)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to fetch article page: %w", err)
	}

	article, err := e.parser.ParseArticle(bytes.NewReader(body))
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to extract article: %w", err)
	}

	e.logger.Info("article extracted", "article_id", article.ID, "title", article.Title)

	return article, nil
}

// ExtractFromFile parses a rendered article page saved on disk.
func (e *ArticleExtractor) ExtractFromFile(filePath string) (models.Article, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}
	defer f.Close()

	article, err := e.parser.ParseArticle(f)
	if err != nil {
		return models.Article{}, fmt.Errorf("failed to extract article: %w", err)
	}

	e.logger.Info("article extracted", "article_id", article.ID, "title", article.Title, "file", filePath)

	return article, nil
}
