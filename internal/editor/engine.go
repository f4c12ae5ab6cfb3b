package editor

// Mark is an inline formatting attribute applied to text.
type Mark string

const (
	MarkBold      Mark = "bold"
	MarkItalic    Mark = "italic"
	MarkUnderline Mark = "underline"
	MarkStrike    Mark = "strike"
)

// BlockType identifies the kind of a top-level document block.
type BlockType string

const (
	BlockParagraph      BlockType = "paragraph"
	BlockHeading1       BlockType = "heading1"
	BlockHeading2       BlockType = "heading2"
	BlockBulletList     BlockType = "bulletList"
	BlockOrderedList    BlockType = "orderedList"
	BlockHorizontalRule BlockType = "horizontalRule"
	BlockImage          BlockType = "image"
	BlockVideo          BlockType = "video"
)

// Engine is the minimal capability surface of a rich-text editing engine.
// The Adapter drives it through this interface only, so the concrete
// engine stays swappable and tests may substitute a fake.
type Engine interface {
	// SetContent replaces the whole document with the given HTML.
	SetContent(html string) error
	// HTML serializes the current document.
	HTML() string

	// InsertText types text at the caret with the active marks.
	InsertText(text string)
	ToggleMark(mark Mark)
	IsMarkActive(mark Mark) bool
	SetBlock(typ BlockType)
	ToggleBlock(typ BlockType)
	IsBlockActive(typ BlockType) bool
	InsertImage(src string)
	InsertVideo(src string)
	InsertHorizontalRule()

	Undo() bool
	Redo() bool
	CanUndo() bool
	CanRedo() bool
}
