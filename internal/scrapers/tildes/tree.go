package tildes

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// TreeOptions are the inputs of a comment tree that cannot be read from
// the markup.
type TreeOptions struct {
	// OriginalPoster is the username of the topic's author.
	OriginalPoster string
	// RespectServerCollapse collapses comments that the server rendered as
	// collapsed.
	RespectServerCollapse bool
}

type MaterializeOptions struct {
	TotalCount       int
	IsOriginalPoster bool
	IsCollapsed      bool
	ParentId         string
	ThreadRootId     string
	DepthOverride    *int
}

// Materialize places a BasicComment in a tree.
func Materialize(basic BasicComment, opts MaterializeOptions) Comment {
	return Comment{
		BasicComment:     basic,
		TotalCount:       opts.TotalCount,
		IsOriginalPoster: opts.IsOriginalPoster,
		IsCollapsed:      opts.IsCollapsed,
		ParentId:         opts.ParentId,
		ThreadRootId:     opts.ThreadRootId,
		DepthOverride:    opts.DepthOverride,
	}
}

// commentTree flattens the comment tree rooted at container depth first, in
// document order.
//
// A comment that fails extraction is dropped together with every reply
// nested under it.
func (e extractor) commentTree(container *goquery.Selection, opts TreeOptions) CommentTree {
	var tree CommentTree
	tree.Comments, _ = e.buildTree(container, opts, "", "", &tree.Failures)
	return tree
}

func (e extractor) buildTree(
	container *goquery.Selection,
	opts TreeOptions,
	parentId, threadRootId string,
	failures *[]error,
) ([]Comment, int) {
	var out []Comment
	totalCount := 0

	container.ChildrenFiltered(selCommentTreeItem).Each(func(i int, item *goquery.Selection) {
		basic, err := e.basicComment(item)
		if err != nil {
			*failures = append(*failures, fmt.Errorf("comment %d under %q: %w", i, parentId, err))
			return
		}

		root := threadRootId
		if root == "" {
			root = basic.Id
		}

		count := 1
		var children []Comment
		replies := item.Find(selCommentTreeReplies).First()
		if replies.Length() > 0 {
			var childCount int
			children, childCount = e.buildTree(replies, opts, basic.Id, root, failures)
			count += childCount
		}

		out = append(out, Materialize(basic, MaterializeOptions{
			TotalCount:       count,
			IsOriginalPoster: opts.OriginalPoster != "" && basic.User == opts.OriginalPoster,
			IsCollapsed:      opts.RespectServerCollapse && basic.IsAlreadyCollapsed,
			ParentId:         parentId,
			ThreadRootId:     root,
		}))
		out = append(out, children...)
		totalCount += count
	})

	return out, totalCount
}
