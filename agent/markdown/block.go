package markdown

// BlockKind identifies a top-level document block.
type BlockKind int

const (
	// BlockOther covers paragraphs, ordered lists, indented code, HTML and breaks.
	BlockOther BlockKind = iota
	BlockHeading
	BlockQuote
	BlockCode
	BlockList
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockQuote:
		return "quote"
	case BlockCode:
		return "code"
	case BlockList:
		return "list"
	default:
		return "other"
	}
}

// Block is one top-level node of a tokenized document.
type Block struct {
	Kind BlockKind
	// Level is the heading depth, 1 to 6. Zero for other kinds.
	Level int
	// Text is the heading text, quote text, or raw fenced-code content.
	Text string
	// Items holds the entries of a bullet list.
	Items []ListItem
}

// ListItem is one bullet with its optional nested bullet list.
type ListItem struct {
	Text     string
	Children []ListItem
}

// HasSubList reports whether the item carries a nested bullet list.
func (i ListItem) HasSubList() bool {
	return len(i.Children) > 0
}

// Heading builds a heading block.
func Heading(level int, text string) Block {
	return Block{Kind: BlockHeading, Level: level, Text: text}
}

// Quote builds a blockquote block.
func Quote(text string) Block {
	return Block{Kind: BlockQuote, Text: text}
}

// Code builds a fenced code block.
func Code(text string) Block {
	return Block{Kind: BlockCode, Text: text}
}

// List builds a bullet list block.
func List(items ...ListItem) Block {
	return Block{Kind: BlockList, Items: items}
}

// Item builds a list item with optional children.
func Item(text string, children ...ListItem) ListItem {
	return ListItem{Text: text, Children: children}
}
