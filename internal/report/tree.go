package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/ppiankov/s3sentry/internal/analyzer"
	s3pkg "github.com/ppiankov/s3sentry/internal/s3"
)

// TreeNode is one entry in a folder hierarchy built from object keys.
type TreeNode struct {
	Name     string
	Size     int64
	IsDir    bool
	Old      bool
	Children map[string]*TreeNode
}

func (n *TreeNode) insert(key string, size int64, old bool) {
	node := n
	parts := strings.Split(key, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		leaf := i == len(parts)-1
		child, ok := node.Children[part]
		if !ok {
			child = &TreeNode{Name: part, IsDir: !leaf}
			if !leaf {
				child.Children = make(map[string]*TreeNode)
			}
			node.Children[part] = child
		}
		if leaf {
			child.Size = size
			child.Old = old
		}
		node = child
	}
}

// BuildTree folds flat object keys into a folder hierarchy rooted at the
// bucket name.
func BuildTree(bucket string, objects []s3pkg.Object) *TreeNode {
	root := &TreeNode{
		Name:     bucket,
		IsDir:    true,
		Children: make(map[string]*TreeNode),
	}
	for _, obj := range objects {
		root.insert(obj.Key, obj.Size, false)
	}
	return root
}

// buildResultTree is BuildTree over scan results, marking age-flagged objects.
func buildResultTree(bucket string, results []analyzer.ObjectResult) *TreeNode {
	root := &TreeNode{
		Name:     bucket,
		IsDir:    true,
		Children: make(map[string]*TreeNode),
	}
	for _, r := range results {
		root.insert(r.Object.Key, r.Object.Size, r.AgeFlag != nil)
	}
	return root
}

// RenderTree prints the hierarchy with box-drawing connectors, directories
// first, each level sorted by name.
func RenderTree(w io.Writer, root *TreeNode) {
	fmt.Fprintf(w, "%s/\n", root.Name)
	renderChildren(w, root, "")
}

func renderChildren(w io.Writer, node *TreeNode, indent string) {
	children := sortedChildren(node)
	for i, child := range children {
		connector := "├── "
		childIndent := indent + "│   "
		if i == len(children)-1 {
			connector = "└── "
			childIndent = indent + "    "
		}

		if child.IsDir {
			fmt.Fprintf(w, "%s%s%s/\n", indent, connector, child.Name)
			renderChildren(w, child, childIndent)
		} else if child.Old {
			fmt.Fprintf(w, "%s%s%s (%s) %s\n", indent, connector, child.Name,
				formatBytes(child.Size), color.YellowString("[OLD]"))
		} else {
			fmt.Fprintf(w, "%s%s%s (%s)\n", indent, connector, child.Name, formatBytes(child.Size))
		}
	}
}

// TreeReporter renders each bucket's results as a folder tree. Objects past
// the age threshold are marked.
type TreeReporter struct {
	writer io.Writer
}

// NewTreeReporter creates a new tree reporter
func NewTreeReporter(w io.Writer) *TreeReporter {
	return &TreeReporter{writer: w}
}

// Generate generates a tree report
func (r *TreeReporter) Generate(data Data) error {
	for i, bucket := range data.Report.Buckets {
		if i > 0 {
			fmt.Fprintln(r.writer)
		}
		RenderTree(r.writer, buildResultTree(bucket.Bucket, bucket.Objects))
	}
	return nil
}

func sortedChildren(node *TreeNode) []*TreeNode {
	children := make([]*TreeNode, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, child)
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].IsDir != children[j].IsDir {
			return children[i].IsDir
		}
		return children[i].Name < children[j].Name
	})
	return children
}
