package editor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// markOrder 决定序列化时标签的嵌套顺序，保证输出规范化。
var markOrder = []Mark{MarkBold, MarkItalic, MarkUnderline, MarkStrike}

var markTags = map[Mark]string{
	MarkBold:      "strong",
	MarkItalic:    "em",
	MarkUnderline: "u",
	MarkStrike:    "s",
}

func serializeBlocks(blocks []block) string {
	var b strings.Builder
	for _, blk := range blocks {
		switch blk.typ {
		case BlockParagraph:
			b.WriteString("<p>")
			writeSpans(&b, blk.spans)
			b.WriteString("</p>")
		case BlockHeading1:
			b.WriteString("<h1>")
			writeSpans(&b, blk.spans)
			b.WriteString("</h1>")
		case BlockHeading2:
			b.WriteString("<h2>")
			writeSpans(&b, blk.spans)
			b.WriteString("</h2>")
		case BlockBulletList:
			b.WriteString("<ul>")
			writeItems(&b, blk.items)
			b.WriteString("</ul>")
		case BlockOrderedList:
			b.WriteString("<ol>")
			writeItems(&b, blk.items)
			b.WriteString("</ol>")
		case BlockHorizontalRule:
			b.WriteString("<hr>")
		case BlockImage:
			b.WriteString(`<img src="` + html.EscapeString(blk.src) + `">`)
		case BlockVideo:
			b.WriteString(`<video controls src="` + html.EscapeString(blk.src) + `"></video>`)
		}
	}
	return b.String()
}

func writeItems(b *strings.Builder, items []listItem) {
	for _, item := range items {
		b.WriteString("<li>")
		writeSpans(b, item.spans)
		b.WriteString("</li>")
	}
}

func writeSpans(b *strings.Builder, spans []span) {
	for _, sp := range spans {
		var open []string
		for _, m := range markOrder {
			if hasMark(sp.marks, m) {
				tag := markTags[m]
				b.WriteString("<" + tag + ">")
				open = append(open, tag)
			}
		}
		b.WriteString(html.EscapeString(sp.text))
		for i := len(open) - 1; i >= 0; i-- {
			b.WriteString("</" + open[i] + ">")
		}
	}
}

func hasMark(marks []Mark, mark Mark) bool {
	for _, m := range marks {
		if m == mark {
			return true
		}
	}
	return false
}

// parseBlocks 将 HTML 解析为块列表；无法识别的元素按段落内容处理。
func parseBlocks(raw string) ([]block, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(raw), ctx)
	if err != nil {
		return nil, err
	}

	var blocks []block
	for _, n := range nodes {
		blocks = appendParsedNode(blocks, n)
	}

	if len(blocks) == 0 {
		blocks = []block{{typ: BlockParagraph}}
	}
	return blocks, nil
}

func appendParsedNode(blocks []block, n *html.Node) []block {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return blocks
		}
		return append(blocks, block{typ: BlockParagraph, spans: []span{{text: n.Data}}})
	case html.ElementNode:
	default:
		return blocks
	}

	switch n.DataAtom {
	case atom.P:
		return append(blocks, block{typ: BlockParagraph, spans: parseInline(n, nil)})
	case atom.H1:
		return append(blocks, block{typ: BlockHeading1, spans: parseInline(n, nil)})
	case atom.H2:
		return append(blocks, block{typ: BlockHeading2, spans: parseInline(n, nil)})
	case atom.Ul:
		return append(blocks, block{typ: BlockBulletList, items: parseItems(n)})
	case atom.Ol:
		return append(blocks, block{typ: BlockOrderedList, items: parseItems(n)})
	case atom.Hr:
		return append(blocks, block{typ: BlockHorizontalRule})
	case atom.Img:
		return append(blocks, block{typ: BlockImage, src: attr(n, "src")})
	case atom.Video:
		return append(blocks, block{typ: BlockVideo, src: attr(n, "src")})
	case atom.Script, atom.Style:
		return blocks
	default:
		// 未知容器：子元素逐个解析，纯行内内容归为一个段落
		spans := parseInline(n, nil)
		if len(spans) > 0 {
			return append(blocks, block{typ: BlockParagraph, spans: spans})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			blocks = appendParsedNode(blocks, c)
		}
		return blocks
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func parseItems(n *html.Node) []listItem {
	var items []listItem
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Li {
			items = append(items, listItem{spans: parseInline(c, nil)})
		}
	}
	return items
}

// parseInline 收集元素下的行内文本，嵌套标记沿途累积。
// 遇到子级块元素时返回空，由调用方改走块解析路径。
func parseInline(n *html.Node, active []Mark) []span {
	if containsBlockChild(n) {
		return nil
	}

	var spans []span
	var walk func(node *html.Node, marks []Mark)
	walk = func(node *html.Node, marks []Mark) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if c.Data != "" {
					spans = appendText(spans, c.Data, canonicalMarks(marks))
				}
			case html.ElementNode:
				switch c.DataAtom {
				case atom.Strong, atom.B:
					walk(c, append(marks, MarkBold))
				case atom.Em, atom.I:
					walk(c, append(marks, MarkItalic))
				case atom.U:
					walk(c, append(marks, MarkUnderline))
				case atom.S, atom.Del, atom.Strike:
					walk(c, append(marks, MarkStrike))
				case atom.Br:
					spans = appendText(spans, "\n", canonicalMarks(marks))
				default:
					walk(c, marks)
				}
			}
		}
	}
	walk(n, active)
	return spans
}

func containsBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.Ul, atom.Ol, atom.Hr, atom.Img, atom.Video, atom.Div, atom.Blockquote, atom.Table:
			return true
		}
	}
	return false
}

// canonicalMarks 去重并按固定顺序排列标记。
func canonicalMarks(marks []Mark) []Mark {
	var out []Mark
	for _, m := range markOrder {
		if hasMark(marks, m) {
			out = append(out, m)
		}
	}
	return out
}
