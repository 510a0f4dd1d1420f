package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	paragraphBreakRe = regexp.MustCompile(`[ \t\r]*\n[ \t\r]*\n\s*`)
	spacesRe         = regexp.MustCompile(`\s+`)
	blankLinesRe     = regexp.MustCompile(`\n{3,}`)
	trailingSpaceRe  = regexp.MustCompile(`[ \t]+\n`)
)

// HTMLToMarkdown переводит HTML записи в Markdown. Пустые строки в тексте
// (абзацы WordPress без <p>) сохраняются как границы абзацев.
func HTMLToMarkdown(content string) (string, error) {
	body, err := parseFragment(content)
	if err != nil {
		return "", fmt.Errorf("ошибка разбора HTML: %w", err)
	}
	var b strings.Builder
	m := &mdWriter{b: &b}
	m.children(body)
	return cleanupMarkdown(b.String()), nil
}

type mdWriter struct {
	b     *strings.Builder
	depth int
	pre   bool
}

func (m *mdWriter) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		m.text(n.Data)
		return
	case html.CommentNode:
		m.b.WriteString("<!--" + n.Data + "-->")
		return
	case html.ElementNode:
	default:
		m.children(n)
		return
	}

	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(n.Data[1:])
		m.b.WriteString("\n\n" + strings.Repeat("#", level) + " ")
		m.b.WriteString(strings.TrimSpace(inlineText(n)))
		m.b.WriteString("\n\n")
	case "p", "div":
		m.b.WriteString("\n\n")
		m.children(n)
		m.b.WriteString("\n\n")
	case "strong", "b":
		m.wrap(n, "**")
	case "em", "i":
		m.wrap(n, "*")
	case "del", "s", "strike":
		m.wrap(n, "~~")
	case "code":
		if m.pre {
			m.children(n)
			return
		}
		m.wrap(n, "`")
	case "a":
		href := getAttr(n, "href")
		if href == "" {
			m.children(n)
			return
		}
		m.b.WriteString("[")
		m.children(n)
		m.b.WriteString("](" + href)
		if title := getAttr(n, "title"); title != "" {
			m.b.WriteString(" " + strconv.Quote(title))
		}
		m.b.WriteString(")")
	case "img":
		m.b.WriteString("![" + getAttr(n, "alt") + "](" + getAttr(n, "src"))
		if title := getAttr(n, "title"); title != "" {
			m.b.WriteString(" " + strconv.Quote(title))
		}
		m.b.WriteString(")")
	case "ul", "ol":
		m.b.WriteString("\n\n")
		m.list(n, n.Data == "ol")
		m.b.WriteString("\n")
	case "blockquote":
		var inner strings.Builder
		(&mdWriter{b: &inner}).children(n)
		m.b.WriteString("\n\n")
		for _, line := range strings.Split(cleanupMarkdown(inner.String()), "\n") {
			m.b.WriteString(strings.TrimRight("> "+line, " ") + "\n")
		}
		m.b.WriteString("\n")
	case "pre":
		lang := ""
		if code := findChild(n, "code"); code != nil {
			lang = classLanguage(code)
		}
		m.b.WriteString("\n\n```" + lang + "\n")
		m.pre = true
		m.children(n)
		m.pre = false
		m.b.WriteString("\n```\n\n")
	case "br":
		m.b.WriteString("  \n")
	case "hr":
		m.b.WriteString("\n\n---\n\n")
	case "script", "style":
	default:
		m.children(n)
	}
}

func (m *mdWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		m.node(c)
	}
}

func (m *mdWriter) wrap(n *html.Node, marker string) {
	m.b.WriteString(marker)
	m.children(n)
	m.b.WriteString(marker)
}

// text сворачивает пробелы как браузер, но пустую строку оставляет абзацем.
func (m *mdWriter) text(s string) {
	if m.pre {
		m.b.WriteString(strings.Trim(s, "\n"))
		return
	}
	parts := paragraphBreakRe.Split(s, -1)
	for i, p := range parts {
		if i > 0 {
			m.b.WriteString("\n\n")
		}
		p = spacesRe.ReplaceAllString(p, " ")
		if m.atLineStart() {
			p = strings.TrimLeft(p, " ")
		}
		m.b.WriteString(p)
	}
}

func (m *mdWriter) atLineStart() bool {
	s := m.b.String()
	return s == "" || strings.HasSuffix(s, "\n")
}

func (m *mdWriter) list(n *html.Node, ordered bool) {
	counter := 1
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		m.b.WriteString(strings.Repeat("  ", m.depth))
		if ordered {
			m.b.WriteString(strconv.Itoa(counter) + ". ")
			counter++
		} else {
			m.b.WriteString("- ")
		}
		m.depth++
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			if gc.Type == html.ElementNode && (gc.Data == "ul" || gc.Data == "ol") {
				m.b.WriteString("\n")
				m.list(gc, gc.Data == "ol")
				continue
			}
			if gc.Type == html.TextNode {
				m.b.WriteString(strings.TrimSpace(spacesRe.ReplaceAllString(gc.Data, " ")))
				continue
			}
			m.node(gc)
		}
		m.depth--
		if !strings.HasSuffix(m.b.String(), "\n") {
			m.b.WriteString("\n")
		}
	}
}

// parseFragment разбирает HTML и возвращает <body>.
func parseFragment(s string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	if body := findNode(doc, "body"); body != nil {
		return body, nil
	}
	return doc, nil
}

func cleanupMarkdown(s string) string {
	s = trailingSpaceRe.ReplaceAllStringFunc(s, func(m string) string {
		// Два пробела перед переводом строки - это <br>.
		if strings.HasSuffix(m, "  \n") {
			return "  \n"
		}
		return "\n"
	})
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func inlineText(n *html.Node) string {
	if n.Type == html.TextNode {
		return spacesRe.ReplaceAllString(n.Data, " ")
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(inlineText(c))
	}
	return b.String()
}

func classLanguage(n *html.Node) string {
	for _, class := range strings.Fields(getAttr(n, "class")) {
		for _, prefix := range []string{"language-", "lang-"} {
			if strings.HasPrefix(class, prefix) {
				return strings.TrimPrefix(class, prefix)
			}
		}
	}
	return ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func findNode(n *html.Node, tagName string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tagName {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if result := findNode(c, tagName); result != nil {
			return result
		}
	}
	return nil
}

func findChild(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}
