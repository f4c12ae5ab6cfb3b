package editor

// span 是携带一组行内标记的连续文本。
type span struct {
	text  string
	marks []Mark
}

// listItem 表示列表块中的一个条目。
type listItem struct {
	spans []span
}

// block 是文档的顶层单元：文本块、列表块或 void 块（分隔线、图片、视频）。
type block struct {
	typ   BlockType
	src   string // image/video 的资源地址
	spans []span
	items []listItem
}

type snapshot struct {
	blocks []block
	cursor int
}

const historyLimit = 100

// Document is the default Engine implementation: a block/inline document
// model with caret-level mark state and an undo/redo history.
type Document struct {
	blocks  []block
	cursor  int
	pending map[Mark]bool
	undo    []snapshot
	redo    []snapshot
}

var _ Engine = (*Document)(nil)

// NewDocument returns an empty document holding a single paragraph.
func NewDocument() *Document {
	return &Document{
		blocks:  []block{{typ: BlockParagraph}},
		pending: make(map[Mark]bool),
	}
}

// NormalizeHTML runs submitted markup through the document model and
// returns its canonical serialization: legacy tags are rewritten,
// unknown wrappers unwrapped and scripts dropped.
func NormalizeHTML(raw string) (string, error) {
	d := NewDocument()
	if err := d.SetContent(raw); err != nil {
		return "", err
	}
	return d.HTML(), nil
}

// SetContent replaces the document with the parsed HTML. The previous
// state stays reachable through Undo.
func (d *Document) SetContent(html string) error {
	blocks, err := parseBlocks(html)
	if err != nil {
		return err
	}

	d.record()
	d.blocks = blocks
	d.cursor = len(blocks) - 1
	return nil
}

// HTML serializes the document.
func (d *Document) HTML() string {
	return serializeBlocks(d.blocks)
}

// InsertText types text at the caret, carrying the active marks.
func (d *Document) InsertText(text string) {
	if text == "" {
		return
	}

	d.record()
	cur := &d.blocks[d.cursor]
	switch cur.typ {
	case BlockHorizontalRule, BlockImage, BlockVideo:
		// void 块后追加新段落再输入
		d.insertBlockAfter(block{typ: BlockParagraph})
		cur = &d.blocks[d.cursor]
		cur.spans = appendText(cur.spans, text, d.activeMarks())
	case BlockBulletList, BlockOrderedList:
		if len(cur.items) == 0 {
			cur.items = append(cur.items, listItem{})
		}
		item := &cur.items[len(cur.items)-1]
		item.spans = appendText(item.spans, text, d.activeMarks())
	default:
		cur.spans = appendText(cur.spans, text, d.activeMarks())
	}
}

// ToggleMark flips a caret mark; subsequently typed text carries it.
func (d *Document) ToggleMark(mark Mark) {
	if d.pending[mark] {
		delete(d.pending, mark)
		return
	}
	d.pending[mark] = true
}

// IsMarkActive reports whether the mark is active at the caret.
func (d *Document) IsMarkActive(mark Mark) bool {
	return d.pending[mark]
}

// SetBlock converts the current block to the given type.
func (d *Document) SetBlock(typ BlockType) {
	cur := d.blocks[d.cursor]
	if cur.typ == typ {
		return
	}

	d.record()
	converted := convertBlock(cur, typ)
	d.blocks[d.cursor] = converted
}

// ToggleBlock applies the block type, or reverts to a paragraph when it
// is already active.
func (d *Document) ToggleBlock(typ BlockType) {
	if d.IsBlockActive(typ) {
		d.SetBlock(BlockParagraph)
		return
	}
	d.SetBlock(typ)
}

// IsBlockActive reports whether the current block has the given type.
func (d *Document) IsBlockActive(typ BlockType) bool {
	return d.blocks[d.cursor].typ == typ
}

// InsertImage inserts an image node at the caret.
func (d *Document) InsertImage(src string) {
	d.insertVoid(block{typ: BlockImage, src: src})
}

// InsertVideo inserts a video node at the caret.
func (d *Document) InsertVideo(src string) {
	d.insertVoid(block{typ: BlockVideo, src: src})
}

// InsertHorizontalRule inserts a rule at the caret.
func (d *Document) InsertHorizontalRule() {
	d.insertVoid(block{typ: BlockHorizontalRule})
}

// Undo restores the previous document state.
func (d *Document) Undo() bool {
	if len(d.undo) == 0 {
		return false
	}

	last := d.undo[len(d.undo)-1]
	d.undo = d.undo[:len(d.undo)-1]
	d.redo = append(d.redo, snapshot{blocks: copyBlocks(d.blocks), cursor: d.cursor})
	d.blocks = last.blocks
	d.cursor = last.cursor
	return true
}

// Redo reapplies the last undone state.
func (d *Document) Redo() bool {
	if len(d.redo) == 0 {
		return false
	}

	next := d.redo[len(d.redo)-1]
	d.redo = d.redo[:len(d.redo)-1]
	d.undo = append(d.undo, snapshot{blocks: copyBlocks(d.blocks), cursor: d.cursor})
	d.blocks = next.blocks
	d.cursor = next.cursor
	return true
}

// CanUndo reports whether an undo step is available.
func (d *Document) CanUndo() bool { return len(d.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (d *Document) CanRedo() bool { return len(d.redo) > 0 }

// record 在每次修改前保存快照，并清空重做栈。
func (d *Document) record() {
	d.undo = append(d.undo, snapshot{blocks: copyBlocks(d.blocks), cursor: d.cursor})
	if len(d.undo) > historyLimit {
		d.undo = d.undo[len(d.undo)-historyLimit:]
	}
	d.redo = nil
}

// insertVoid 插入 void 块；当前块若是空段落则原位替换。
func (d *Document) insertVoid(b block) {
	d.record()
	cur := d.blocks[d.cursor]
	if cur.typ == BlockParagraph && len(cur.spans) == 0 {
		d.blocks[d.cursor] = b
		return
	}
	d.insertBlockAfter(b)
}

func (d *Document) insertBlockAfter(b block) {
	at := d.cursor + 1
	d.blocks = append(d.blocks, block{})
	copy(d.blocks[at+1:], d.blocks[at:])
	d.blocks[at] = b
	d.cursor = at
}

func (d *Document) activeMarks() []Mark {
	marks := make([]Mark, 0, len(d.pending))
	for _, m := range []Mark{MarkBold, MarkItalic, MarkUnderline, MarkStrike} {
		if d.pending[m] {
			marks = append(marks, m)
		}
	}
	return marks
}

func appendText(spans []span, text string, marks []Mark) []span {
	if len(spans) > 0 && sameMarks(spans[len(spans)-1].marks, marks) {
		spans[len(spans)-1].text += text
		return spans
	}
	return append(spans, span{text: text, marks: marks})
}

func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// convertBlock 在块类型之间转换，尽量保留文本内容。
func convertBlock(b block, typ BlockType) block {
	spans := b.spans
	if b.typ == BlockBulletList || b.typ == BlockOrderedList {
		spans = nil
		for _, item := range b.items {
			spans = append(spans, item.spans...)
		}
	}

	switch typ {
	case BlockBulletList, BlockOrderedList:
		converted := block{typ: typ}
		if len(spans) > 0 {
			converted.items = []listItem{{spans: spans}}
		}
		return converted
	default:
		return block{typ: typ, spans: spans}
	}
}

func copyBlocks(blocks []block) []block {
	out := make([]block, len(blocks))
	for i, b := range blocks {
		out[i] = block{typ: b.typ, src: b.src, spans: copySpans(b.spans)}
		if b.items != nil {
			out[i].items = make([]listItem, len(b.items))
			for j, item := range b.items {
				out[i].items[j] = listItem{spans: copySpans(item.spans)}
			}
		}
	}
	return out
}

func copySpans(spans []span) []span {
	if spans == nil {
		return nil
	}
	out := make([]span, len(spans))
	for i, sp := range spans {
		out[i] = span{text: sp.text, marks: append([]Mark(nil), sp.marks...)}
	}
	return out
}
