package qtranslate

import "strings"

// TeaserMarker отделяет анонс записи WordPress от продолжения. Для Split это
// обычный общий текст.
const TeaserMarker = "<!--more-->"

// Translations - результат Split: текст по языкам в порядке первого появления языка.
type Translations struct {
	order []string
	parts map[string][]string
	text  map[string]string
}

// Langs возвращает коды языков в порядке их первого появления в тексте.
// Для текста без тегов это единственный пустой код.
func (t *Translations) Langs() []string { return append([]string(nil), t.order...) }

func (t *Translations) Get(lang string) (string, bool) {
	s, ok := t.text[lang]
	return s, ok
}

func (t *Translations) Len() int { return len(t.order) }

// Tagged сообщает, были ли в тексте теги языков.
func (t *Translations) Tagged() bool { return !(len(t.order) == 1 && t.order[0] == "") }

// Map возвращает копию результата в виде обычной карты.
func (t *Translations) Map() map[string]string {
	m := make(map[string]string, len(t.text))
	for k, v := range t.text {
		m[k] = v
	}
	return m
}

func (t *Translations) register(lang string, common []string) {
	if _, ok := t.parts[lang]; ok {
		return
	}
	t.order = append(t.order, lang)
	t.parts[lang] = append([]string(nil), common...)
}

// HasTags сообщает, есть ли в каноническом тексте хотя бы один открывающий тег.
func HasTags(text string) bool {
	if !strings.Contains(text, "[:") {
		return false
	}
	for _, t := range lex(text, canonicalForms) {
		if t.kind == tokenOpen {
			return true
		}
	}
	return false
}

// Split раскладывает канонический текст по языкам.
//
// Общий текст вне тегов дописывается ко всем уже встреченным языкам и
// становится началом каждого языка, который появится позже. Это касается и
// переводов строк между блоками; пробельный текст перед первым тегом
// отбрасывается. Повторные
// участки одного языка и общие участки склеиваются через один пробел.
// Текст без тегов возвращается как есть под пустым кодом языка.
//
// Несбалансированные теги обрабатываются по возможности: закрывающий тег без
// открывающего игнорируется, текст после незакрытого тега остается за его языком.
func Split(text string) *Translations {
	t := &Translations{parts: make(map[string][]string), text: make(map[string]string)}
	toks := lex(text, canonicalForms)
	if !hasOpen(toks) {
		t.order = []string{""}
		t.text[""] = text
		return t
	}

	var common []string
	current := ""
	started := false
	for _, tok := range toks {
		switch tok.kind {
		case tokenOpen:
			current = tok.lang
			started = true
			t.register(current, common)
		case tokenClose:
			current = ""
			started = true
		case tokenText:
			if current != "" {
				t.parts[current] = append(t.parts[current], tok.text)
				continue
			}
			// Отбрасываются только пробелы перед первым тегом.
			if !started && strings.TrimSpace(tok.text) == "" {
				continue
			}
			common = append(common, tok.text)
			for _, lang := range t.order {
				t.parts[lang] = append(t.parts[lang], tok.text)
			}
		}
	}

	for _, lang := range t.order {
		t.text[lang] = strings.Join(t.parts[lang], " ")
	}
	t.parts = nil
	return t
}

func hasOpen(toks []token) bool {
	for _, t := range toks {
		if t.kind == tokenOpen {
			return true
		}
	}
	return false
}
