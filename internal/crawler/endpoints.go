package crawler

import (
	"net/url"
	"strconv"
	"strings"
)

// Endpoints builds the platform API URLs for one API host.
type Endpoints struct {
	baseURL string
}

// NewEndpoints creates an endpoint builder rooted at apiBaseURL.
func NewEndpoints(apiBaseURL string) *Endpoints {
	return &Endpoints{baseURL: strings.TrimRight(apiBaseURL, "/")}
}

// Comments returns the ranked comments URL and query for one page.
// An empty cursor requests the first page.
func (e *Endpoints) Comments(articleID, cursor string) (string, url.Values) {
	query := url.Values{}
	query.Set("negative", "downvote")

	if cursor != "" {
		query.Set("nextKey", cursor)
	}

	return e.baseURL + "/service/api/v2/commentRanking/posts/" + url.PathEscape(articleID) + "/comments", query
}

// Replies returns the URL and query for the first page of replies under a comment.
func (e *Endpoints) Replies(articleID, commentID string, limit int) (string, url.Values) {
	query := url.Values{}
	query.Set("parentId", commentID)
	query.Set("limit", strconv.Itoa(limit))

	return e.baseURL + "/service/api/v2/posts/" + url.PathEscape(articleID) + "/comments", query
}
