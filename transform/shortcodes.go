// Package transform содержит преобразования текста записи WordPress перед
// записью на диск: шорткоды, переводы строк, маркер анонса, HTML и Markdown.
package transform

import (
	"regexp"
	"strings"
)

// TeaserEnd - маркер конца анонса в генераторе сайта.
const TeaserEnd = "<!-- TEASER_END -->"

var (
	codeRe       = regexp.MustCompile(`(?s)\[code(\s[^\]]*)?\](.*?)\[/code\]`)
	sourceCodeRe = regexp.MustCompile(`(?s)\[sourcecode(\s[^\]]*)?\](.*?)\[/sourcecode\]`)
	codeLangRe   = regexp.MustCompile(`\blang(?:uage)?="([^"]*)"`)

	captionOpenRe  = regexp.MustCompile(`\[caption(\s[^\]]*)?\]`)
	captionCloseRe = regexp.MustCompile(`\[/caption\]`)

	newlinesRe = regexp.MustCompile(`\n{3,}`)
	teaserRe   = regexp.MustCompile(`<!--more(\s[^>]*?)?-->`)

	codeEntities = strings.NewReplacer("&amp;", "&", "&gt;", ">", "&lt;", "<", "&quot;", `"`)
)

// Code превращает [code lang="x"]...[/code] и [sourcecode language="x"]...[/sourcecode]
// в блоки ```x. Внутри блока снимается HTML-экранирование.
func Code(content string) string {
	for _, re := range []*regexp.Regexp{codeRe, sourceCodeRe} {
		content = re.ReplaceAllStringFunc(content, func(match string) string {
			m := re.FindStringSubmatch(match)
			lang := ""
			if l := codeLangRe.FindStringSubmatch(m[1]); l != nil {
				lang = l[1]
			}
			return "```" + lang + "\n" + codeEntities.Replace(m[2]) + "\n```"
		})
	}
	return content
}

// CodeToPre - вариант Code для последующего перевода в Markdown: блок
// становится <pre><code class="language-x">, текст внутри остается экранированным.
func CodeToPre(content string) string {
	for _, re := range []*regexp.Regexp{codeRe, sourceCodeRe} {
		content = re.ReplaceAllStringFunc(content, func(match string) string {
			m := re.FindStringSubmatch(match)
			class := ""
			if l := codeLangRe.FindStringSubmatch(m[1]); l != nil && l[1] != "" {
				class = ` class="language-` + l[1] + `"`
			}
			return "<pre><code" + class + ">" + m[2] + "</code></pre>"
		})
	}
	return content
}

// Caption убирает шорткоды [caption], оставляя разметку внутри.
func Caption(content string) string {
	content = captionCloseRe.ReplaceAllString(content, "")
	return captionOpenRe.ReplaceAllString(content, "")
}

// SquashNewlines сжимает три и более перевода строки до двух.
func SquashNewlines(content string) string {
	return newlinesRe.ReplaceAllString(content, "\n\n")
}

// Teaser заменяет <!--more--> (в том числе с текстом ссылки) на TeaserEnd.
func Teaser(content string) string {
	return teaserRe.ReplaceAllString(content, TeaserEnd)
}
