package render

import (
	"fmt"
	"strings"
)

// Indent contributed by each level of list and blockquote nesting, in points.
const (
	listIndentStep  = 15
	quoteIndentStep = 20
)

// entityTable is the fixed set of entities decoded to their characters.
// Every other named or numeric entity collapses to a single space.
var entityTable = map[string]string{
	"&nbsp;": " ",
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": "\"",
	"&#39;":  "'",
	"&#x27;": "'",
	"&#x2F;": "/",
}

type listContext struct {
	ordered bool
	index   int
}

type htmlParser struct {
	bold       bool
	italic     bool
	heading    bool
	inAnchor   bool
	anchorHref string
	anchorText bool
	lists      []listContext
	quoteDepth int

	blocks  []Block
	current *Block
	runText strings.Builder
}

// ParseHTML converts helpdesk rich text into a flat block sequence using a
// single left-to-right scan. It is a pure function of its input; empty input
// yields an empty sequence.
func ParseHTML(html string) []Block {
	p := &htmlParser{}
	if html == "" {
		return []Block{}
	}

	html = stripContainer(html, "script")
	html = stripContainer(html, "style")

	i := 0
	for i < len(html) {
		if html[i] != '<' {
			j := strings.IndexByte(html[i:], '<')
			if j < 0 {
				p.appendText(html[i:])
				break
			}
			p.appendText(html[i : i+j])
			i += j
			continue
		}

		end := strings.IndexByte(html[i:], '>')
		if end < 0 {
			// Unterminated tag, treat the remainder as markup noise.
			break
		}
		p.handleTag(html[i+1 : i+end])
		i += end + 1
	}

	p.flushBlock()
	return p.blocks
}

func (p *htmlParser) handleTag(raw string) {
	tag := strings.TrimSpace(raw)
	closing := strings.HasPrefix(tag, "/")
	tag = strings.TrimPrefix(tag, "/")
	tag = strings.TrimSuffix(tag, "/")

	name := tag
	if idx := strings.IndexAny(tag, " \t\r\n"); idx >= 0 {
		name = tag[:idx]
	}
	name = strings.ToLower(name)

	switch name {
	case "p", "div":
		p.flushBlock()
	case "br":
		p.flushBlock()
	case "h1", "h2", "h3", "h4", "h5", "h6":
		p.flushBlock()
		p.heading = !closing
	case "strong", "b":
		p.endRun()
		p.bold = !closing
	case "em", "i":
		p.endRun()
		p.italic = !closing
	case "ul", "ol":
		p.flushBlock()
		if closing {
			if len(p.lists) > 0 {
				p.lists = p.lists[:len(p.lists)-1]
			}
		} else {
			p.lists = append(p.lists, listContext{ordered: name == "ol"})
		}
	case "li":
		p.flushBlock()
		if !closing {
			p.openBlock(BlockListItem)
			p.current.Runs = append(p.current.Runs, Run{Text: p.nextItemMarker(), Bold: p.bold, Italic: p.italic})
		}
	case "blockquote":
		p.flushBlock()
		if closing {
			if p.quoteDepth > 0 {
				p.quoteDepth--
			}
		} else {
			p.quoteDepth++
		}
	case "a":
		if closing {
			p.closeAnchor()
		} else {
			p.inAnchor = true
			p.anchorHref = attrValue(tag, "href")
			p.anchorText = false
		}
	case "tr":
		if closing {
			p.flushBlock()
		}
	case "td", "th":
		if closing && p.current != nil {
			p.runText.WriteString("  ")
		}
	default:
		// Images, spans, table wrappers and anything unrecognized pass
		// through without altering parser state.
	}
}

func (p *htmlParser) nextItemMarker() string {
	if len(p.lists) == 0 {
		return "• "
	}
	ctx := &p.lists[len(p.lists)-1]
	if !ctx.ordered {
		return "• "
	}
	ctx.index++
	return fmt.Sprintf("%d. ", ctx.index)
}

func (p *htmlParser) closeAnchor() {
	if p.inAnchor && p.anchorText && p.anchorHref != "" {
		p.endRun()
		p.appendRaw(" (" + p.anchorHref + ")")
	}
	p.inAnchor = false
	p.anchorHref = ""
	p.anchorText = false
}

func (p *htmlParser) appendText(text string) {
	cleaned := collapseWhitespace(decodeEntities(text))
	if cleaned == "" {
		return
	}
	if strings.TrimSpace(cleaned) != "" && p.inAnchor {
		p.anchorText = true
	}
	p.appendRaw(cleaned)
}

func (p *htmlParser) appendRaw(text string) {
	p.openBlock(BlockParagraph)
	p.runText.WriteString(text)
}

// openBlock starts a block of the given type if none is open. An already
// open block keeps its original type.
func (p *htmlParser) openBlock(t BlockType) {
	if p.current != nil {
		return
	}
	if t == BlockParagraph && p.heading {
		t = BlockHeading
	}
	p.current = &Block{
		Type:   t,
		Indent: listIndentStep*len(p.lists) + quoteIndentStep*p.quoteDepth,
	}
}

// endRun seals the pending text into a run carrying the current style flags.
func (p *htmlParser) endRun() {
	if p.runText.Len() == 0 {
		return
	}
	text := p.runText.String()
	p.runText.Reset()
	if p.current == nil {
		p.openBlock(BlockParagraph)
	}
	p.current.Runs = append(p.current.Runs, Run{
		Text:   text,
		Bold:   p.bold || p.heading,
		Italic: p.italic,
	})
}

func (p *htmlParser) flushBlock() {
	p.endRun()
	if p.current == nil {
		return
	}
	block := *p.current
	p.current = nil

	var joined strings.Builder
	for _, r := range block.Runs {
		joined.WriteString(r.Text)
	}
	if strings.TrimSpace(joined.String()) == "" {
		return
	}
	p.blocks = append(p.blocks, block)
}

// stripContainer removes every <name>...</name> element including content.
func stripContainer(s, name string) string {
	open := "<" + name
	closeTag := "</" + name
	for {
		lower := strings.ToLower(s)
		start := strings.Index(lower, open)
		if start < 0 {
			return s
		}
		rest := lower[start:]
		closeAt := strings.Index(rest, closeTag)
		if closeAt < 0 {
			return s[:start]
		}
		closeEnd := strings.IndexByte(rest[closeAt:], '>')
		if closeEnd < 0 {
			return s[:start]
		}
		s = s[:start] + s[start+closeAt+closeEnd+1:]
	}
}

func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			out.WriteByte(s[i])
			i++
			continue
		}
		semi := strings.IndexByte(s[i:], ';')
		if semi < 0 || semi > 10 {
			out.WriteByte('&')
			i++
			continue
		}
		entity := s[i : i+semi+1]
		if replacement, ok := entityTable[entity]; ok {
			out.WriteString(replacement)
		} else if isEntityBody(entity[1 : len(entity)-1]) {
			out.WriteString(" ")
		} else {
			out.WriteString(entity)
		}
		i += semi + 1
	}
	return out.String()
}

func isEntityBody(body string) bool {
	if body == "" {
		return false
	}
	for _, r := range body {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '#':
		default:
			return false
		}
	}
	return true
}

func collapseWhitespace(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ' ' {
			if !inSpace {
				out.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		out.WriteRune(r)
	}
	return out.String()
}

// attrValue extracts a quoted attribute value from a raw tag body.
func attrValue(tag, attr string) string {
	lower := strings.ToLower(tag)
	idx := strings.Index(lower, attr+"=")
	if idx < 0 {
		return ""
	}
	rest := tag[idx+len(attr)+1:]
	if rest == "" {
		return ""
	}
	switch rest[0] {
	case '"', '\'':
		quote := rest[0]
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			return ""
		}
		return rest[1 : end+1]
	default:
		end := strings.IndexAny(rest, " \t\r\n")
		if end < 0 {
			return rest
		}
		return rest[:end]
	}
}
