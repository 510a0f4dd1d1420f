package site

import (
	"sort"
	"strings"
)

// Metadata - метаданные одной записи или страницы сайта.
type Metadata struct {
	Title       string
	Slug        string
	Date        string
	Tags        []string
	Category    string
	Link        string
	Description string
	Type        string

	// Дополнительные поля (wp-status, author и т.п.) выводятся после
	// стандартных в алфавитном порядке.
	Fields map[string]string
}

// NewMetadata возвращает указатель, чтобы было удобно заполнять Fields.
func NewMetadata(title, slug, date string) *Metadata {
	return &Metadata{
		Title:  title,
		Slug:   slug,
		Date:   date,
		Fields: make(map[string]string),
	}
}

// Lines возвращает строки вида ".. key: value". Заголовок, slug, дата, теги и
// описание выводятся всегда, остальные стандартные поля - если заданы.
func (m *Metadata) Lines() []string {
	lines := []string{
		metaLine("title", m.Title),
		metaLine("slug", m.Slug),
		metaLine("date", m.Date),
		metaLine("tags", strings.Join(m.Tags, ",")),
	}
	for _, kv := range [][2]string{{"category", m.Category}, {"link", m.Link}} {
		if kv[1] != "" {
			lines = append(lines, metaLine(kv[0], kv[1]))
		}
	}
	lines = append(lines, metaLine("description", m.Description))
	if m.Type != "" {
		lines = append(lines, metaLine("type", m.Type))
	}

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		lines = append(lines, metaLine(k, m.Fields[k]))
	}
	return lines
}

func (m *Metadata) String() string {
	return strings.Join(m.Lines(), "\n") + "\n"
}

// Значение должно занимать одну строку.
func metaLine(key, value string) string {
	value = strings.ReplaceAll(strings.ReplaceAll(value, "\r\n", " "), "\n", " ")
	return strings.TrimRight(".. "+key+": "+value, " ")
}
