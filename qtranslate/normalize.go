// Package qtranslate разбирает многоязычные поля, записанные плагином
// qtranslate и его наследниками (qTranslate-X, qTranslate-XT).
//
// Работа идет в две фазы. Normalize переписывает все исторические формы тегов
// в каноническую [:xx]...[:], Split раскладывает канонический текст по языкам.
package qtranslate

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidEncoding возвращается, если после нормализации байты не являются UTF-8.
var ErrInvalidEncoding = errors.New("qtranslate: текст не в кодировке UTF-8")

// Normalize переписывает теги <!--:xx-->, <!--xx-->, <!--/xx-->, {:xx} и их
// закрывающие пары в каноническую форму [:xx] / [:]. Все остальные байты,
// включая HTML и не-ASCII текст, переносятся без изменений. Баланс тегов
// не проверяется.
func Normalize(raw []byte) []byte {
	toks := lex(string(raw), legacyForms)
	var b bytes.Buffer
	b.Grow(len(raw))
	for _, t := range toks {
		switch t.kind {
		case tokenOpen:
			b.WriteString("[:")
			b.WriteString(t.lang)
			b.WriteString("]")
		case tokenClose:
			b.WriteString("[:]")
		default:
			b.WriteString(t.text)
		}
	}
	return b.Bytes()
}

// NormalizeText нормализует и декодирует поле выгрузки.
func NormalizeText(raw []byte) (string, error) {
	out := Normalize(raw)
	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: ошибка на байте %d", ErrInvalidEncoding, invalidOffset(out))
	}
	return string(out), nil
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}
