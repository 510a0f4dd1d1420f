package transform

import (
	"errors"
	"fmt"
)

// Форматы записей (postmeta или настройка импорта).
const (
	FormatWordPress = "wp"
	FormatMarkdown  = "markdown"
	FormatNone      = "none"
)

var ErrUnknownFormat = errors.New("неизвестный формат записи")

// Pipeline выбирает цепочку преобразований по формату записи.
type Pipeline struct {
	SquashNewlines bool
	// HTMLToMarkdown переводит HTML в Markdown (html2text).
	HTMLToMarkdown bool
	// ToHTML рендерит текст WordPress в готовый HTML.
	ToHTML bool
	// UseWordPressCompiler оставляет текст как есть для компилятора wp.
	UseWordPressCompiler bool
}

// Output - результат преобразования: текст, расширение файла и нужно ли
// переписывать ссылки на вложения при записи.
type Output struct {
	Content      string
	Ext          string
	RewriteLinks bool
}

func (p Pipeline) Transform(content, format string) (Output, error) {
	switch format {
	case FormatWordPress, "":
		switch {
		case p.ToHTML:
			content = Caption(Code(content))
			return Output{Content: WordPressToHTML(Teaser(content)), Ext: "html", RewriteLinks: true}, nil
		case p.UseWordPressCompiler:
			return Output{Content: content, Ext: "wp"}, nil
		}
		if p.HTMLToMarkdown {
			content = CodeToPre(content)
		} else {
			content = Code(content)
		}
		content = Caption(content)
		if p.SquashNewlines {
			content = SquashNewlines(content)
		}
		if p.HTMLToMarkdown {
			md, err := HTMLToMarkdown(content)
			if err != nil {
				return Output{}, err
			}
			content = md
		}
		return Output{Content: Teaser(content), Ext: "md", RewriteLinks: true}, nil
	case FormatMarkdown:
		return Output{Content: content, Ext: "md", RewriteLinks: true}, nil
	case FormatNone:
		return Output{Content: Teaser(content), Ext: "html", RewriteLinks: true}, nil
	}
	return Output{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
