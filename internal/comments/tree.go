// Package comments turns the flat comment list stored for a post into the
// nested reply structure the client renders. Sorting is a read-path decision
// made before assembly; this package only re-nests, it never re-orders.
package comments

import (
	"github.com/forumhub/backend/internal/models"
)

// Node is a comment plus its replies. The Comment value is embedded rather
// than referenced so the assembled forest serializes directly.
type Node struct {
	models.Comment
	Replies []*Node `json:"replies"`
}

// BuildForest nests a flat, pre-sorted comment list into a forest of reply
// trees. Input order is preserved within each sibling list.
//
// A comment whose parent is missing from the input (for example a parent
// outside the current page window) becomes a root rather than being dropped.
// Soft-deleted comments stay in the forest as placeholders so their replies
// keep their position in the thread.
func BuildForest(list []models.Comment) []*Node {
	byID := make(map[int]*Node, len(list))
	nodes := make([]*Node, 0, len(list))
	for _, c := range list {
		n := &Node{Comment: c, Replies: []*Node{}}
		byID[c.ID] = n
		nodes = append(nodes, n)
	}

	roots := []*Node{}
	for _, n := range nodes {
		if n.ParentCommentID != nil {
			if parent, ok := byID[*n.ParentCommentID]; ok {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	return roots
}

// ChildDepth computes the depth for a reply to the given parent. Depth is
// assigned once here and trusted afterwards; replies past the cap render
// flat at MaxCommentDepth instead of nesting further.
func ChildDepth(parent *models.Comment) int {
	if parent == nil {
		return 0
	}
	if parent.Depth+1 > models.MaxCommentDepth {
		return models.MaxCommentDepth
	}
	return parent.Depth + 1
}
