package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"threadrelay/internal/config"
	"threadrelay/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleFixture = `<!DOCTYPE html>
<html>
<head>
  <title>dcard</title>
  <link rel="canonical" href="https://www.dcard.tw/f/talk/p/255012345?ref=share#top">
</head>
<body>
  <article>
    <h1>  今天的午餐  </h1>
    <time datetime="2024-03-01T08:30:00.000Z">3月1日 16:30</time>
    <div class="content">
第一行
第二行
    </div>
  </article>
</body>
</html>`

func newTestParser() *Parser {
	return NewParser(config.Default().Source.Selectors)
}

func TestParser_ParseArticle_Complete(t *testing.T) {
	article, err := newTestParser().ParseArticleHTML(articleFixture)
	require.NoError(t, err)

	assert.Equal(t, "255012345", article.ID)
	assert.Equal(t, "https://www.dcard.tw/f/talk/p/255012345?ref=share#top", article.URL)
	assert.Equal(t, "今天的午餐", article.Title)
	assert.Equal(t, "2024-03-01T08:30:00.000Z", article.CreatedAt)
	assert.Equal(t, "第一行\n第二行", article.Content)
}

func TestParser_ParseArticle_TimestampFallsBackToText(t *testing.T) {
	html := `<html><head><link rel="canonical" href="https://example.com/p/42"></head>
<body><article><h1>T</h1><time> 2024-01-01 </time><div class="content">body</div></article></body></html>`

	article, err := newTestParser().ParseArticleHTML(html)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", article.CreatedAt)
	assert.Equal(t, "42", article.ID)
}

func TestParser_ParseArticle_MissingField(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		field string
	}{
		{
			name:  "no title",
			html:  `<link rel="canonical" href="https://x/p/1"><article><time datetime="t"></time><div class="content">b</div></article>`,
			field: "title",
		},
		{
			name:  "empty title",
			html:  `<link rel="canonical" href="https://x/p/1"><article><h1>   </h1><time datetime="t"></time><div class="content">b</div></article>`,
			field: "title",
		},
		{
			name:  "no timestamp",
			html:  `<link rel="canonical" href="https://x/p/1"><article><h1>T</h1><div class="content">b</div></article>`,
			field: "created_at",
		},
		{
			name:  "no body",
			html:  `<link rel="canonical" href="https://x/p/1"><article><h1>T</h1><time datetime="t"></time></article>`,
			field: "content",
		},
		{
			name:  "no canonical",
			html:  `<article><h1>T</h1><time datetime="t"></time><div class="content">b</div></article>`,
			field: "url",
		},
		{
			name:  "canonical with trailing slash",
			html:  `<link rel="canonical" href="https://x/p/1/"><article><h1>T</h1><time datetime="t"></time><div class="content">b</div></article>`,
			field: "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := newTestParser().ParseArticleHTML(tt.html)

			require.ErrorIs(t, err, ErrMissingField)
			assert.Contains(t, err.Error(), tt.field)
			assert.Empty(t, article.ID)
		})
	}
}

func TestParser_CustomSelectors(t *testing.T) {
	p := NewParser(config.SelectorConfig{
		Title:     "#title",
		Timestamp: ".posted",
		Body:      "#body",
		Canonical: "link[rel='canonical']",
	})

	html := `<link rel="canonical" href="https://x/p/abc"><h2 id="title">Hi</h2><span class="posted">yesterday</span><p id="body">text</p>`

	article, err := p.ParseArticleHTML(html)
	require.NoError(t, err)
	assert.Equal(t, "abc", article.ID)
	assert.Equal(t, "yesterday", article.CreatedAt)
}

func TestArticleExtractor_ExtractFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(articleFixture), 0644))

	cfg := testCrawlerConfig()
	extractor := NewArticleExtractor(NewScraper(cfg, logger.Discard()), newTestParser(), logger.Discard())

	article, err := extractor.Extract(context.Background(), config.SourceConfig{File: path})
	require.NoError(t, err)
	assert.Equal(t, "255012345", article.ID)

	_, err = extractor.ExtractFromFile(filepath.Join(t.TempDir(), "missing.html"))
	require.Error(t, err)
}
