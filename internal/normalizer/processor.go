// Package normalizer turns platform API items into relay records.
package normalizer

import (
	"fmt"

	"threadrelay/internal/models"
)

// Processor handles data processing and transformation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Comment transforms an API item into a comment record and validates it.
func (p *Processor) Comment(item models.CommentItem) (models.Comment, error) {
	comment := p.transformer.ToComment(item)

	if err := p.validator.ValidateComment(comment); err != nil {
		return models.Comment{}, fmt.Errorf("validation failed: %w", err)
	}

	return comment, nil
}

// Reply transforms an API item into a reply record and validates it.
func (p *Processor) Reply(item models.CommentItem) (models.Reply, error) {
	reply := p.transformer.ToReply(item)

	if err := p.validator.ValidateComment(models.Comment(reply)); err != nil {
		return models.Reply{}, fmt.Errorf("validation failed: %w", err)
	}

	return reply, nil
}
