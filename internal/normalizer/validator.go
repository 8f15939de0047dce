package normalizer

import (
	"errors"

	"threadrelay/internal/models"
)

// Validation errors.
var (
	ErrMissingID        = errors.New("record id is required")
	ErrMissingArticleID = errors.New("article id is required")
)

// Validator checks records before they are relayed.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateComment checks a comment or reply record.
func (v *Validator) ValidateComment(comment models.Comment) error {
	if comment.ID == "" {
		return ErrMissingID
	}

	return nil
}

// ValidateArticle checks an article record.
func (v *Validator) ValidateArticle(article models.Article) error {
	if article.ID == "" {
		return ErrMissingArticleID
	}

	return nil
}
