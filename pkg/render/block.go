package render

// BlockType classifies a rendered text block.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockListItem  BlockType = "list-item"
)

// Run is a styled text fragment within a block.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
}

// Block is one laid-out unit: a paragraph, heading or list item with its
// computed indent and ordered styled runs.
type Block struct {
	Type   BlockType
	Indent int
	Runs   []Run
}
