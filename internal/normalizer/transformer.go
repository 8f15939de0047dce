package normalizer

import (
	"fmt"

	"threadrelay/internal/models"
)

// Transformer maps platform items onto relay records.
type Transformer struct{}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// ToComment converts an API item into a comment record.
func (t *Transformer) ToComment(item models.CommentItem) models.Comment {
	return models.Comment{
		ID:        item.ID,
		Content:   item.Content,
		Author:    FormatAuthor(item.Identity),
		Likes:     item.LikeCount,
		CreatedAt: item.CreatedAt,
	}
}

// ToReply converts an API item into a reply record.
func (t *Transformer) ToReply(item models.CommentItem) models.Reply {
	return models.Reply(t.ToComment(item))
}

// FormatAuthor builds the display string for an item's author.
//
// Precedence:
//  1. nickname flag with persona nickname and uid: "Nick (@uid, G)"
//  2. nickname flag otherwise: "@School (@Department, G)"
//  3. no nickname flag: "School Department (G)", department omitted when empty
//
// The second form reuses school and department under the nickname flag. It is
// kept as observed on the platform until its intent is confirmed.
func FormatAuthor(id models.Identity) string {
	if id.WithNickname && id.PersonaNickname != "" && id.PersonaUID != "" {
		return fmt.Sprintf("%s (@%s, %s)", id.PersonaNickname, id.PersonaUID, id.Gender)
	}

	if id.WithNickname {
		return fmt.Sprintf("@%s (@%s, %s)", id.School, id.Department, id.Gender)
	}

	author := id.School
	if id.Department != "" {
		author += " " + id.Department
	}

	return fmt.Sprintf("%s (%s)", author, id.Gender)
}
