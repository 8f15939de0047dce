package models

// Comment is a top-level response to an article, ready to relay.
type Comment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	Likes     int    `json:"likes"`
	CreatedAt string `json:"created_at"`
}

// Reply is a response nested under a comment. It has the same shape as
// Comment and differs only in where it is relayed to.
type Reply Comment
