package editor

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkpress/internal/storage"
	"github.com/rs/zerolog"
)

// Adapter is the controlled wrapper around an Engine. It keeps a
// caller-supplied value/onChange pair synchronized with the editing
// surface and adds media upload plus a raw HTML source mode: the form
// content and the surface serialization never diverge while mounted.
type Adapter struct {
	engine   Engine
	store    storage.Store
	log      zerolog.Logger
	onChange func(html string)
	now      func() time.Time

	value      string
	htmlBuffer string
	sourceOpen bool

	// videoRefs 保存仅在当前编辑会话内有效的视频引用
	videoRefs map[string]string
}

// NewAdapter wires an engine to a store and an onChange callback.
// onChange fires with fresh HTML on every content mutation.
func NewAdapter(engine Engine, store storage.Store, log zerolog.Logger, onChange func(html string)) *Adapter {
	a := &Adapter{
		engine:    engine,
		store:     store,
		log:       log,
		onChange:  onChange,
		now:       time.Now,
		videoRefs: make(map[string]string),
	}
	a.value = engine.HTML()
	a.htmlBuffer = a.value
	return a
}

// Value returns the current serialized HTML.
func (a *Adapter) Value() string {
	return a.value
}

// SetValue applies an external reset of the controlled value. The
// surface is only reset when the value differs from its current
// serialization; onChange is not invoked, the caller already holds it.
func (a *Adapter) SetValue(html string) error {
	if html == a.engine.HTML() {
		return nil
	}
	if err := a.engine.SetContent(html); err != nil {
		return err
	}
	a.value = a.engine.HTML()
	if !a.sourceOpen {
		a.htmlBuffer = a.value
	}
	return nil
}

// InsertText types text at the caret.
func (a *Adapter) InsertText(text string) {
	a.engine.InsertText(text)
	a.emit()
}

// ToggleMark flips an inline mark at the caret. The document content is
// unchanged, so no change event is emitted.
func (a *Adapter) ToggleMark(mark Mark) {
	a.engine.ToggleMark(mark)
}

// IsMarkActive reports the toolbar active state for a mark.
func (a *Adapter) IsMarkActive(mark Mark) bool {
	return a.engine.IsMarkActive(mark)
}

// ToggleBlock toggles the block type of the current selection.
func (a *Adapter) ToggleBlock(typ BlockType) {
	a.engine.ToggleBlock(typ)
	a.emit()
}

// SetParagraph reverts the current block to a plain paragraph.
func (a *Adapter) SetParagraph() {
	a.engine.SetBlock(BlockParagraph)
	a.emit()
}

// IsBlockActive reports the toolbar active state for a block type.
func (a *Adapter) IsBlockActive(typ BlockType) bool {
	return a.engine.IsBlockActive(typ)
}

// InsertHorizontalRule inserts a rule at the caret.
func (a *Adapter) InsertHorizontalRule() {
	a.engine.InsertHorizontalRule()
	a.emit()
}

// Undo steps the surface back one change.
func (a *Adapter) Undo() {
	if a.engine.Undo() {
		a.emit()
	}
}

// Redo reapplies the last undone change.
func (a *Adapter) Redo() {
	if a.engine.Redo() {
		a.emit()
	}
}

// CanUndo reports whether undo is available.
func (a *Adapter) CanUndo() bool { return a.engine.CanUndo() }

// CanRedo reports whether redo is available.
func (a *Adapter) CanRedo() bool { return a.engine.CanRedo() }

// UploadImage stores the file and inserts an image node referencing its
// public URL. On failure nothing is inserted and the error is returned
// for the caller to surface.
func (a *Adapter) UploadImage(filename string, data []byte) (string, error) {
	url, reused, err := StoreImage(a.store, a.now, filename, data)
	if err != nil {
		a.log.Error().Err(err).Str("filename", filename).Msg("图片上传失败")
		return "", err
	}
	if reused {
		a.log.Debug().Str("url", url).Msg("复用已存在的图片")
	}

	a.engine.InsertImage(url)
	a.emit()
	return url, nil
}

// AttachVideo inserts a video node referencing a transient local object.
// The reference only lives for this editing session; it is never written
// to durable storage.
func (a *Adapter) AttachVideo(filename string) string {
	ref := "blob:" + uuid.New().String()
	a.videoRefs[ref] = filename

	a.engine.InsertVideo(ref)
	a.emit()
	return ref
}

// VideoRef resolves a transient video reference created in this session.
func (a *Adapter) VideoRef(ref string) (string, bool) {
	filename, ok := a.videoRefs[ref]
	return filename, ok
}

// ImportMarkdown converts markdown to HTML and loads it into the surface.
func (a *Adapter) ImportMarkdown(markdown string) error {
	html, err := RenderMarkdown(markdown)
	if err != nil {
		return err
	}
	if err := a.engine.SetContent(html); err != nil {
		return err
	}
	a.emit()
	return nil
}

// OpenHTMLSource snapshots the current serialization into the editable
// source buffer and opens the source mode. While open, background
// interaction with the surface is suspended.
func (a *Adapter) OpenHTMLSource() {
	a.htmlBuffer = a.engine.HTML()
	a.sourceOpen = true
}

// HTMLSourceOpen reports whether the source mode is open.
func (a *Adapter) HTMLSourceOpen() bool {
	return a.sourceOpen
}

// SetHTMLSource edits the source buffer without touching the surface.
func (a *Adapter) SetHTMLSource(html string) {
	a.htmlBuffer = html
}

// HTMLSource returns the current source buffer.
func (a *Adapter) HTMLSource() string {
	return a.htmlBuffer
}

// PreviewHTML returns the markup the live source preview renders from.
func (a *Adapter) PreviewHTML() string {
	return a.htmlBuffer
}

// SaveHTMLSource commits the buffer into the surface and closes the
// source mode.
func (a *Adapter) SaveHTMLSource() error {
	if err := a.engine.SetContent(a.htmlBuffer); err != nil {
		return err
	}
	a.sourceOpen = false
	a.emit()
	return nil
}

// CancelHTMLSource discards buffer edits, re-snapshots from the surface
// and closes the source mode.
func (a *Adapter) CancelHTMLSource() {
	a.htmlBuffer = a.engine.HTML()
	a.sourceOpen = false
}

// emit 在每次内容变化后同步受控值并向上传播。
func (a *Adapter) emit() {
	html := a.engine.HTML()
	a.value = html
	if !a.sourceOpen {
		a.htmlBuffer = html
	}
	if a.onChange != nil {
		a.onChange(html)
	}
}
