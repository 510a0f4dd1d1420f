package wordpress

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"wordpress-importer/qtranslate"
)

// --- Модель выгрузки WXR ---
// Теги указаны без пространств имен: encoding/xml сравнивает локальные имена,
// а версии пространства wp: (1.0, 1.1, 1.2) отличаются.

type WXRFile struct {
	Channel Channel `xml:"channel"`
}

type Channel struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Language    string   `xml:"language"`
	BaseSiteURL string   `xml:"base_site_url"`
	BaseBlogURL string   `xml:"base_blog_url"`
	Authors     []Author `xml:"author"`
	Items       []Item   `xml:"item"`
}

type Author struct {
	ID          int    `xml:"author_id"`
	Login       string `xml:"author_login"`
	Email       string `xml:"author_email"`
	DisplayName string `xml:"author_display_name"`
}

type Item struct {
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	PubDate       string     `xml:"pubDate"`
	Creator       string     `xml:"creator"`
	Encodeds      []Encoded  `xml:"encoded"`
	PostID        int        `xml:"post_id"`
	PostDate      string     `xml:"post_date"`
	PostDateGMT   string     `xml:"post_date_gmt"`
	PostName      string     `xml:"post_name"`
	Status        string     `xml:"status"`
	PostParent    int        `xml:"post_parent"`
	PostType      string     `xml:"post_type"`
	AttachmentURL string     `xml:"attachment_url"`
	Categories    []Category `xml:"category"`
	PostMeta      []PostMeta `xml:"postmeta"`
	Comments      []Comment  `xml:"comment"`

	// Attachment заполняют источники, которые получают метаданные вложения
	// уже разобранными (REST, GraphQL).
	Attachment *AttachmentMetadata `xml:"-"`
}

// Encoded - content:encoded или excerpt:encoded, различаются пространством имен.
type Encoded struct {
	XMLName xml.Name
	Data    string `xml:",chardata"`
}

type Category struct {
	Domain   string `xml:"domain,attr"`
	NiceName string `xml:"nicename,attr"`
	Value    string `xml:",chardata"`
}

type PostMeta struct {
	Key   string `xml:"meta_key"`
	Value string `xml:"meta_value"`
}

type Comment struct {
	ID          int    `xml:"comment_id"`
	Author      string `xml:"comment_author"`
	AuthorEmail string `xml:"comment_author_email"`
	AuthorURL   string `xml:"comment_author_url"`
	AuthorIP    string `xml:"comment_author_IP"`
	Date        string `xml:"comment_date"`
	DateGMT     string `xml:"comment_date_gmt"`
	Content     string `xml:"comment_content"`
	Approved    string `xml:"comment_approved"`
	Type        string `xml:"comment_type"`
	Parent      int    `xml:"comment_parent"`
	UserID      int    `xml:"comment_user_id"`
}

// Content возвращает тело записи (content:encoded).
func (it *Item) Content() string { return it.encoded("/content/") }

// Excerpt возвращает анонс записи (excerpt:encoded).
func (it *Item) Excerpt() string { return it.encoded("/excerpt/") }

func (it *Item) encoded(spaceMarker string) string {
	for _, e := range it.Encodeds {
		if strings.Contains(e.XMLName.Space, spaceMarker) {
			return e.Data
		}
	}
	return ""
}

// Meta возвращает значение wp:postmeta по ключу.
func (it *Item) Meta(key string) (string, bool) {
	for _, m := range it.PostMeta {
		if m.Key == key {
			return m.Value, true
		}
	}
	return "", false
}

// AttachmentMetadata возвращает метаданные вложения: готовые или из
// сериализованного _wp_attachment_metadata. Без метаданных возвращает nil.
func (it *Item) AttachmentMetadata() (*AttachmentMetadata, error) {
	if it.Attachment != nil {
		return it.Attachment, nil
	}
	raw, ok := it.Meta("_wp_attachment_metadata")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return ParseAttachmentMetadata(raw)
}

// TagNames возвращает метки записи: все термины, кроме рубрик (post_tag,
// post_format и прочие таксономии).
func (it *Item) TagNames() []string {
	return it.terms(func(domain string) bool { return domain != "category" })
}

// CategoryNames возвращает рубрики записи (category с domain="category").
func (it *Item) CategoryNames() []string {
	return it.terms(func(domain string) bool { return domain == "category" })
}

func (it *Item) terms(match func(domain string) bool) []string {
	var out []string
	for _, c := range it.Categories {
		if match(c.Domain) && strings.TrimSpace(c.Value) != "" {
			out = append(out, strings.TrimSpace(c.Value))
		}
	}
	return out
}

// Slug - wp:post_name, а если его нет, то wp:post_id.
func (it *Item) Slug() string {
	if it.PostName != "" {
		return it.PostName
	}
	if it.PostID != 0 {
		return strconv.Itoa(it.PostID)
	}
	return ""
}

// Date возвращает дату публикации в формате выгрузки ("2006-01-02 15:04:05").
// У черновиков post_date бывает нулевой.
func (it *Item) Date() string {
	for _, d := range []string{it.PostDate, it.PostDateGMT} {
		if d != "" && !strings.HasPrefix(d, "0000-00-00") {
			return d
		}
	}
	return it.PostDate
}

// ParseWXR разбирает XML-выгрузку WordPress.
func ParseWXR(r io.Reader) (*Channel, error) {
	decoder := xml.NewDecoder(r)
	// В выгрузках встречаются HTML-сущности вне CDATA.
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity

	var wxr WXRFile
	if err := decoder.Decode(&wxr); err != nil {
		return nil, fmt.Errorf("ошибка парсинга XML: %w", err)
	}
	return &wxr.Channel, nil
}

// ReadWXRFile читает выгрузку с диска. При separateQTranslate теги qtranslate
// нормализуются до разбора XML: теги-комментарии <!--:xx--> в заголовках иначе
// пропали бы как XML-комментарии.
func ReadWXRFile(filePath string, separateQTranslate bool) (*Channel, error) {
	byteValue, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", filePath, err)
	}
	return ReadWXR(byteValue, separateQTranslate)
}

func ReadWXR(byteValue []byte, separateQTranslate bool) (*Channel, error) {
	if separateQTranslate {
		text, err := qtranslate.NormalizeText(byteValue)
		if err != nil {
			return nil, err
		}
		byteValue = []byte(text)
	}
	return ParseWXR(bytes.NewReader(byteValue))
}
