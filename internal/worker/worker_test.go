package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"threadrelay/internal/config"
	"threadrelay/internal/crawler"
	"threadrelay/internal/logger"
	"threadrelay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPageGone = errors.New("page gone")

type fakeSource struct {
	article models.Article
	err     error
}

func (f *fakeSource) Extract(context.Context, config.SourceConfig) (models.Article, error) {
	return f.article, f.err
}

type fakeArticleRelay struct {
	ok    bool
	calls int
}

func (f *fakeArticleRelay) RelayArticle(context.Context, models.Article) bool {
	f.calls++
	return f.ok
}

type fakeThread struct {
	calls     int
	articleID string
}

func (f *fakeThread) RelayThread(_ context.Context, articleID string) *crawler.ThreadResult {
	f.calls++
	f.articleID = articleID

	return &crawler.ThreadResult{PagesFetched: 1, CommentsRelayed: 2}
}

func TestWorker_Run_Success(t *testing.T) {
	source := &fakeSource{article: models.Article{ID: "255", Title: "t"}}
	backend := &fakeArticleRelay{ok: true}
	thread := &fakeThread{}

	result, err := NewWithDeps(source, backend, thread, logger.Discard()).Run(context.Background(), config.SourceConfig{URL: "x"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "255", result.Article.ID)
	assert.Equal(t, "255", thread.articleID)
	assert.Equal(t, 2, result.Thread.CommentsRelayed)
}

func TestWorker_Run_ExtractionFailure(t *testing.T) {
	backend := &fakeArticleRelay{ok: true}
	thread := &fakeThread{}

	_, err := NewWithDeps(&fakeSource{err: errPageGone}, backend, thread, logger.Discard()).Run(context.Background(), config.SourceConfig{})

	require.ErrorIs(t, err, errPageGone)
	assert.Zero(t, backend.calls)
	assert.Zero(t, thread.calls)
}

func TestWorker_Run_ArticleRelayFailure(t *testing.T) {
	backend := &fakeArticleRelay{ok: false}
	thread := &fakeThread{}

	result, err := NewWithDeps(&fakeSource{article: models.Article{ID: "255"}}, backend, thread, logger.Discard()).Run(context.Background(), config.SourceConfig{})

	require.ErrorIs(t, err, ErrArticleRelayFailed)
	assert.Equal(t, 1, backend.calls)
	assert.Zero(t, thread.calls)
	assert.Nil(t, result.Thread)
}

func TestWorker_Run_UniqueRunIDs(t *testing.T) {
	w := NewWithDeps(&fakeSource{article: models.Article{ID: "1"}}, &fakeArticleRelay{ok: true}, &fakeThread{}, logger.Discard())

	a, err := w.Run(context.Background(), config.SourceConfig{})
	require.NoError(t, err)

	b, err := w.Run(context.Background(), config.SourceConfig{})
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
}

const pageHTML = `<html><head><link rel="canonical" href="%s/f/talk/p/255"></head>
<body><article><h1>Title</h1><time datetime="2024-03-01T00:00:00Z"></time><div class="content">Body</div></article></body></html>`

// platform serves the rendered page and the comments API.
type platform struct {
	url      string
	apiHits  atomic.Int32
	pageHits atomic.Int32
}

func (p *platform) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/f/talk/p/255":
		p.pageHits.Add(1)
		_, _ = fmt.Fprintf(w, pageHTML, p.url)
	case strings.HasPrefix(r.URL.Path, "/service/api/v2/commentRanking/"):
		p.apiHits.Add(1)
		_, _ = w.Write([]byte(`{"nextKey":null,"items":[
			{"id":"c1","content":"first","createdAt":"2024","likeCount":3,"subCommentCount":2,"school":"NTU","gender":"F","withNickname":false},
			{"id":"c2","content":"second","createdAt":"2024","likeCount":0,"subCommentCount":0,"withNickname":true,"personaNickname":"Bob","personaUid":"bob1","gender":"M"}
		]}`))
	case strings.HasPrefix(r.URL.Path, "/service/api/v2/posts/"):
		p.apiHits.Add(1)
		_, _ = w.Write([]byte(`[
			{"id":"r1","content":"reply one","createdAt":"2024","school":"NCKU","department":"EE","gender":"M"},
			{"id":"r2","content":"reply two","createdAt":"2024","school":"NCKU","gender":"F"}
		]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// backend records every relayed document by path.
type backend struct {
	status int
	mu     sync.Mutex
	posts  map[string][]map[string]any
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	b.posts[r.URL.Path] = append(b.posts[r.URL.Path], body)
	b.mu.Unlock()

	w.WriteHeader(b.status)
}

func newEndToEnd(t *testing.T, backendStatus int) (*config.Config, *platform, *backend) {
	t.Helper()

	p := &platform{}
	platformServer := httptest.NewServer(p)
	t.Cleanup(platformServer.Close)
	p.url = platformServer.URL

	b := &backend{status: backendStatus, posts: make(map[string][]map[string]any)}
	backendServer := httptest.NewServer(b)
	t.Cleanup(backendServer.Close)

	cfg := config.Default()
	cfg.Source.URL = platformServer.URL + "/f/talk/p/255"
	cfg.Source.APIBaseURL = platformServer.URL
	cfg.Relay.BaseURL = backendServer.URL + "/api"
	cfg.Crawler.PageDelayMs = 0
	cfg.Crawler.PageJitterMs = 0
	cfg.Crawler.Retry.InitialDelayMs = 1
	cfg.Crawler.Retry.JitterMs = 0
	require.NoError(t, cfg.Validate())

	return cfg, p, b
}

func TestWorker_EndToEnd(t *testing.T) {
	cfg, p, b := newEndToEnd(t, http.StatusCreated)

	result, err := New(cfg, logger.Discard()).Run(context.Background(), cfg.Source)
	require.NoError(t, err)

	assert.Equal(t, "255", result.Article.ID)
	assert.Equal(t, 2, result.Thread.CommentsRelayed)
	assert.Equal(t, 2, result.Thread.RepliesRelayed)
	assert.Equal(t, int32(2), p.apiHits.Load())

	b.mu.Lock()
	defer b.mu.Unlock()

	require.Len(t, b.posts["/api/dcard/articles"], 1)
	assert.Equal(t, "Title", b.posts["/api/dcard/articles"][0]["title"])

	comments := b.posts["/api/dcard/articles/255/comments"]
	require.Len(t, comments, 2)
	assert.Equal(t, "NTU (F)", comments[0]["author"])
	assert.Equal(t, "Bob (@bob1, M)", comments[1]["author"])

	replies := b.posts["/api/dcard/articles/255/comments/c1/replies"]
	require.Len(t, replies, 2)
	assert.Empty(t, b.posts["/api/dcard/articles/255/comments/c2/replies"])
}

func TestWorker_EndToEnd_ArticleRejected(t *testing.T) {
	cfg, p, b := newEndToEnd(t, http.StatusInternalServerError)

	_, err := New(cfg, logger.Discard()).Run(context.Background(), cfg.Source)
	require.ErrorIs(t, err, ErrArticleRelayFailed)

	assert.Equal(t, int32(1), p.pageHits.Load())
	assert.Zero(t, p.apiHits.Load())

	b.mu.Lock()
	defer b.mu.Unlock()

	assert.Len(t, b.posts, 1)
}
