// Package models defines the records extracted from a discussion thread and the
// payloads exchanged with the source platform API.
package models

// Article is the thread's opening post as read from the rendered page.
// ID is the trailing path segment of URL.
type Article struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}
