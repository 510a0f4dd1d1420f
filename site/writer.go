// Package site записывает результат импорта: тексты записей, метаданные,
// комментарии, сведения о вложениях, карту адресов и конфигурацию сайта.
package site

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"wordpress-importer/transform"
)

// Writer пишет файлы сайта через afero.Fs: на диск (afero.NewOsFs) или в
// память в тестах.
type Writer struct {
	Fs     afero.Fs
	Logger *zap.Logger
}

func NewWriter(fs afero.Fs, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{Fs: fs, Logger: logger}
}

func (w *Writer) writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := w.Fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(w.Fs, path, data, 0o644); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	w.Logger.Debug("записан файл", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// WriteMetadata пишет файл .meta рядом с текстом записи.
func (w *Writer) WriteMetadata(path string, meta *Metadata) error {
	return w.writeFile(path, []byte(meta.String()))
}

// WriteContent пишет текст записи. Если links не пуст, ссылки на вложения
// заменяются локальными путями.
func (w *Writer) WriteContent(path, content string, links map[string]string) error {
	return w.writeFile(path, []byte(transform.RewriteLinks(content, links)))
}

// WriteOneFile пишет метаданные в HTML-комментарии в начале текста.
func (w *Writer) WriteOneFile(path string, meta *Metadata, content string, links map[string]string) error {
	header := "<!--\n" + meta.String() + "-->\n\n"
	return w.writeFile(path, []byte(header+transform.RewriteLinks(content, links)))
}

// --- Вложения ---

type FileMeta struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   string `json:"size,omitempty"`
}

// AttachmentInfo описывает одно вложение записи в файле .attachments.json.
type AttachmentInfo struct {
	Title             string         `json:"title"`
	Excerpt           string         `json:"excerpt"`
	Content           string         `json:"content"`
	DateUTC           string         `json:"date_utc"`
	WordPressUserName string         `json:"wordpress_user_name"`
	Files             []string       `json:"files"`
	FilesMeta         []FileMeta     `json:"files_meta"`
	ImageMeta         map[string]any `json:"image_meta,omitempty"`
}

// WriteAttachmentsInfo пишет JSON с вложениями записи по их post_id.
func (w *Writer) WriteAttachmentsInfo(path string, info map[int]AttachmentInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации вложений: %w", err)
	}
	return w.writeFile(path, append(data, '\n'))
}

// --- Комментарии ---

// Comment - комментарий в формате .wpcl. Нулевые ParentID и UserID не выводятся.
type Comment struct {
	ID          int
	Status      string
	Approved    string
	Author      string
	AuthorEmail string
	AuthorURL   string
	AuthorIP    string
	DateUTC     string
	ParentID    int
	UserID      int
	Content     string
}

// WriteComment пишет заголовок ".. key: value", пустую строку и текст.
func (w *Writer) WriteComment(path string, c Comment) error {
	var b strings.Builder
	header := func(key, value string) {
		b.WriteString(".. " + key + ": " + strings.ReplaceAll(value, "\n", " ") + "\n")
	}
	header("id", strconv.Itoa(c.ID))
	header("status", c.Status)
	header("approved", c.Approved)
	header("author", c.Author)
	header("author_email", c.AuthorEmail)
	header("author_url", c.AuthorURL)
	header("author_IP", c.AuthorIP)
	header("date_utc", c.DateUTC)
	if c.ParentID != 0 {
		header("parent_id", strconv.Itoa(c.ParentID))
	}
	if c.UserID != 0 {
		header("wordpress_user_id", strconv.Itoa(c.UserID))
	}
	b.WriteString("\n" + c.Content)
	return w.writeFile(path, []byte(b.String()))
}

// --- Карта адресов ---

// WriteURLMap пишет CSV "старый адрес,новый адрес", отсортированный по старому.
func (w *Writer) WriteURLMap(path string, urlMap map[string]string) error {
	keys := make([]string, 0, len(urlMap))
	for k := range urlMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	for _, k := range keys {
		if err := cw.Write([]string{k, urlMap[k]}); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("ошибка записи CSV: %w", err)
	}
	return w.writeFile(path, buf.Bytes())
}

// --- Конфигурация ---

// WriteConfiguration сохраняет контекст сайта в TOML.
func (w *Writer) WriteConfiguration(path string, ctx *Context) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(ctx); err != nil {
		return fmt.Errorf("ошибка сериализации конфигурации: %w", err)
	}
	return w.writeFile(path, buf.Bytes())
}
