package transform

import (
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// WordPressToHTML рендерит текст в стиле редактора WordPress в HTML: пустая
// строка разделяет абзацы, одиночный перевод строки становится <br>, блочный
// HTML проходит без изменений. Блоки ```x после Code становятся <pre><code>.
func WordPressToHTML(content string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	out := markdown.ToHTML([]byte(normalizeLineEndings(content)), p, renderer)
	return strings.TrimSpace(string(out))
}

func normalizeLineEndings(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
