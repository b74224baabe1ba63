package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var engine = goldmark.New()

// Tokenize splits a CommonMark document into top-level blocks.
// Text is taken from the raw source lines, so inline markup survives unchanged.
func Tokenize(src []byte) []Block {
	doc := engine.Parser().Parse(text.NewReader(src))

	var blocks []Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, toBlock(n, src))
	}
	return blocks
}

func toBlock(n ast.Node, src []byte) Block {
	switch node := n.(type) {
	case *ast.Heading:
		return Heading(node.Level, lineText(node, src))
	case *ast.Blockquote:
		return Quote(containerText(node, src))
	case *ast.FencedCodeBlock:
		return Code(rawText(node, src))
	case *ast.List:
		if node.IsOrdered() {
			return Block{Kind: BlockOther}
		}
		return Block{Kind: BlockList, Items: listItems(node, src)}
	default:
		return Block{Kind: BlockOther, Text: lineText(n, src)}
	}
}

func listItems(list *ast.List, src []byte) []ListItem {
	var items []ListItem
	for c := list.FirstChild(); c != nil; c = c.NextSibling() {
		li, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}

		var item ListItem
		if first := li.FirstChild(); first != nil {
			if _, nested := first.(*ast.List); !nested {
				item.Text = lineText(first, src)
			}
		}
		if li.ChildCount() > 1 {
			if sub, ok := li.LastChild().(*ast.List); ok && !sub.IsOrdered() {
				item.Children = listItems(sub, src)
			}
		}
		items = append(items, item)
	}
	return items
}

// lineText joins the trimmed source lines of a leaf block.
func lineText(n ast.Node, src []byte) string {
	if n.Type() != ast.TypeBlock {
		return ""
	}
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimSpace(string(seg.Value(src))))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// containerText gathers leaf text below a container block such as a blockquote.
func containerText(n ast.Node, src []byte) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		t := lineText(c, src)
		if t == "" && c.HasChildren() {
			t = containerText(c, src)
		}
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// rawText concatenates code lines verbatim.
func rawText(n ast.Node, src []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}
