package qtranslate

import "strings"

// tokenKind различает три вида токенов: текст, открывающий и закрывающий тег.
type tokenKind int

const (
	tokenText tokenKind = iota
	tokenOpen
	tokenClose
)

type token struct {
	kind tokenKind
	lang string // пусто для tokenText и tokenClose
	text string
}

// lexState - состояние автомата лексера. Теги плоские и не вкладываются,
// поэтому трех состояний достаточно.
type lexState int

const (
	outsideTag lexState = iota
	inOpenTag
	inCloseTag
)

// tagForm описывает одну историческую запись тегов qtranslate.
type tagForm struct {
	prefix string
	suffix string
	// closing: префикс сам по себе означает закрывающий тег (<!--/en-->).
	closing bool
	// exactLetters > 0: код языка строго из стольких ASCII-букв, пустой код запрещен.
	exactLetters int
}

// Порядок важен: более длинные префиксы проверяются раньше.
var (
	canonicalForms = []tagForm{
		{prefix: "[:", suffix: "]"},
	}
	legacyForms = []tagForm{
		{prefix: "[:", suffix: "]"},
		{prefix: "{:", suffix: "}"},
		{prefix: "<!--:", suffix: "-->"},
		{prefix: "<!--/", suffix: "-->", closing: true},
		{prefix: "<!--", suffix: "-->", exactLetters: 2},
	}
)

const maxLangLen = 10

type lexer struct {
	input string
	forms []tagForm
	state lexState
	pos   int
	start int // начало текущего текстового участка
	form  tagForm
	mark  int // начало кода языка в текущем теге
	out   []token
}

func lex(input string, forms []tagForm) []token {
	l := &lexer{input: input, forms: forms}
	l.run()
	return l.out
}

func (l *lexer) run() {
	for l.pos < len(l.input) {
		switch l.state {
		case outsideTag:
			l.scanOutside()
		case inOpenTag, inCloseTag:
			l.scanTag()
		}
	}
	l.flushText(len(l.input))
}

func (l *lexer) scanOutside() {
	c := l.input[l.pos]
	if c != '[' && c != '{' && c != '<' {
		l.pos++
		return
	}
	for _, f := range l.forms {
		if !strings.HasPrefix(l.input[l.pos:], f.prefix) {
			continue
		}
		l.form = f
		l.mark = l.pos + len(f.prefix)
		if f.closing {
			l.state = inCloseTag
		} else {
			l.state = inOpenTag
		}
		return
	}
	l.pos++
}

// scanTag читает код языка и суффикс. Код может содержать '-', поэтому
// суффикс "-->" ищется от самого длинного кандидата к короткому. Если тег не
// распознан, его первый байт остается обычным текстом.
func (l *lexer) scanTag() {
	tagStart := l.pos
	end := l.mark
	for end < len(l.input) && end-l.mark < maxLangLen && isLangByte(l.input[end], end == l.mark) {
		end++
	}
	for ; end >= l.mark; end-- {
		code := l.input[l.mark:end]
		if !strings.HasPrefix(l.input[end:], l.form.suffix) || !l.validCode(code) {
			continue
		}
		l.flushText(tagStart)
		if l.state == inCloseTag || code == "" {
			l.out = append(l.out, token{kind: tokenClose})
		} else {
			l.out = append(l.out, token{kind: tokenOpen, lang: code})
		}
		l.pos = end + len(l.form.suffix)
		l.start = l.pos
		l.state = outsideTag
		return
	}
	l.state = outsideTag
	l.pos = tagStart + 1
}

func (l *lexer) validCode(code string) bool {
	if len(code) > maxLangLen {
		return false
	}
	if l.form.exactLetters > 0 {
		if len(code) != l.form.exactLetters {
			return false
		}
		for i := 0; i < len(code); i++ {
			if !isLetter(code[i]) {
				return false
			}
		}
		return true
	}
	// Закрывающий тег с наклоном обязан называть язык.
	if l.form.closing {
		return code != ""
	}
	return true
}

func (l *lexer) flushText(end int) {
	if end <= l.start {
		return
	}
	text := l.input[l.start:end]
	if n := len(l.out); n > 0 && l.out[n-1].kind == tokenText {
		l.out[n-1].text += text
	} else {
		l.out = append(l.out, token{kind: tokenText, text: text})
	}
	l.start = end
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isLangByte(c byte, first bool) bool {
	if first {
		return isLetter(c)
	}
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}
