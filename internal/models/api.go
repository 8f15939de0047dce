package models

// Identity is the author information the platform attaches to every item.
type Identity struct {
	PersonaNickname string `json:"personaNickname,omitempty"`
	PersonaUID      string `json:"personaUid,omitempty"`
	School          string `json:"school,omitempty"`
	Department      string `json:"department,omitempty"`
	Gender          string `json:"gender,omitempty"`
	WithNickname    bool   `json:"withNickname"`
}

// CommentItem is one comment or reply as returned by the platform API.
type CommentItem struct {
	Identity

	ID              string `json:"id"`
	Content         string `json:"content"`
	CreatedAt       string `json:"createdAt"`
	LikeCount       int    `json:"likeCount"`
	SubCommentCount int    `json:"subCommentCount"`
	Floor           int    `json:"floor"`
}

// CommentPage is one page of the ranked comments endpoint.
// A nil NextKey marks the last page.
type CommentPage struct {
	NextKey *string       `json:"nextKey"`
	Items   []CommentItem `json:"items"`
}

// HasNext reports whether another page can be requested.
func (p *CommentPage) HasNext() bool {
	return p.NextKey != nil && *p.NextKey != ""
}
