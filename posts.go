package wordpress_importer

import (
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"wordpress-importer/internal/config"
	"wordpress-importer/qtranslate"
	"wordpress-importer/site"
	"wordpress-importer/transform"
	"wordpress-importer/wordpress"
)

var errNoSlug = errors.New("не удалось определить slug записи")

// importPostPage пишет запись или страницу: текст и метаданные на каждом
// языке, комментарии, сведения о вложениях и строку карты адресов.
func (im *Importer) importPostPage(item *wordpress.Item) error {
	log := im.Logger.With(zap.Int("id", item.PostID), zap.String("title", item.Title))
	opts := im.Options

	var tags []string
	switch item.Status {
	case "trash":
		log.Warn("запись в корзине не импортируется")
		im.result.Skipped++
		return nil
	case "private":
		if opts.ExcludePrivates {
			log.Info("закрытая запись пропущена")
			im.result.Skipped++
			return nil
		}
		tags = append(tags, "private")
	case "publish":
	default:
		if opts.ExcludeDrafts {
			log.Info("черновик пропущен")
			im.result.Skipped++
			return nil
		}
		tags = append(tags, "draft")
	}

	outFolder, postSlug, err := im.outputLocation(item)
	if err != nil {
		log.Error("ошибка импорта записи", zap.String("link", item.Link), zap.Error(err))
		im.result.Skipped++
		return nil
	}

	var categories []string
	for _, name := range item.CategoryNames() {
		if name == "Uncategorized" {
			continue
		}
		if opts.ExportCategoriesAsCategories {
			categories = append(categories, im.sanitizeTag(name))
		} else {
			tags = append(tags, im.sanitizeTag(name))
		}
	}
	for _, name := range item.TagNames() {
		tags = append(tags, im.sanitizeTag(name))
	}

	content := item.Content()
	if strings.Contains(content, "$latex") {
		tags = append(tags, "mathjax")
	}
	tags = dedupe(tags)

	format := opts.PostFormat
	if f, ok := item.Meta("_tc_post_format"); ok && f != "" {
		format = f
	}
	if format == "" || format == "wpautop" {
		format = transform.FormatWordPress
	}

	link := item.Link
	if link != "" {
		im.result.URLMap[link] = im.context.SiteURL + strings.TrimSuffix(outFolder, "/") + "/" + postSlug + ".html"
	}

	title := im.localize(item.Title)
	body := im.localize(content)
	excerpt := im.localize(item.Excerpt())
	langs := mergeLangs(body.langs(), title.langs(), excerpt.langs())
	defaultLang := im.context.DefaultLang

	dir := filepath.Join(opts.OutputFolder, filepath.FromSlash(outFolder))
	for _, lang := range langs {
		out, err := im.pipeline.Transform(body.in(lang, defaultLang), format)
		if err != nil {
			log.Error("ошибка преобразования текста", zap.String("lang", lang), zap.Error(err))
			continue
		}

		contentName := postSlug + "." + out.Ext
		metaName := postSlug + ".meta"
		if lang != "" && lang != defaultLang {
			contentName = translationName(im.context.TranslationsPattern, postSlug, lang, out.Ext)
			metaName = translationName(im.context.TranslationsPattern, postSlug, lang, "meta")
			im.extraLangs[lang] = true
		}

		meta := site.NewMetadata(title.in(lang, defaultLang), postSlug, item.Date())
		meta.Tags = tags
		meta.Category = strings.Join(categories, ",")
		meta.Description = excerpt.in(lang, defaultLang)
		meta.Fields["wp-status"] = item.Status

		var links map[string]string
		if out.RewriteLinks {
			links = im.result.Links
		}
		if opts.OneFile {
			err = im.writer.WriteOneFile(filepath.Join(dir, contentName), meta, out.Content, links)
		} else {
			if err = im.writer.WriteMetadata(filepath.Join(dir, metaName), meta); err == nil {
				err = im.writer.WriteContent(filepath.Join(dir, contentName), out.Content, links)
			}
		}
		if err != nil {
			return err
		}
	}

	if info := im.attachments[item.PostID]; len(info) > 0 {
		if err := im.writer.WriteAttachmentsInfo(filepath.Join(dir, postSlug+".attachments.json"), info); err != nil {
			return err
		}
	}
	if opts.ExportComments {
		if err := im.importComments(item, dir, postSlug); err != nil {
			return err
		}
	}

	if item.PostType == "page" {
		im.result.Pages++
	} else {
		im.result.Posts++
	}
	log.Debug("запись импортирована", zap.String("folder", outFolder), zap.String("slug", postSlug), zap.Strings("langs", langs))
	return nil
}

// outputLocation выводит каталог (posts/... или pages/...) и slug из пути
// постоянной ссылки. Для ссылок вида ?p=123 slug - post_name или post_id.
func (im *Importer) outputLocation(item *wordpress.Item) (string, string, error) {
	folder := "posts"
	if item.PostType == "page" {
		folder = "pages"
	}
	u, err := url.Parse(item.Link)
	if err != nil {
		return "", "", err
	}
	p := strings.Trim(u.Path, "/")
	if base := strings.Trim(im.baseDir, "/"); base != "" && strings.HasPrefix(p, base) {
		p = strings.Trim(strings.TrimPrefix(p, base), "/")
	}

	if u.RawQuery != "" || p == "" {
		s := item.Slug()
		if s == "" {
			return "", "", errNoSlug
		}
		if p != "" {
			folder = path.Join(folder, p)
		}
		return folder, s, nil
	}

	parts := strings.Split(p, "/")
	if len(parts) > 1 {
		folder = path.Join(append([]string{folder}, parts[:len(parts)-1]...)...)
	}
	s := slug.Make(parts[len(parts)-1])
	if s == "" {
		s = item.Slug()
	}
	if s == "" {
		return "", "", errNoSlug
	}
	return folder, s, nil
}

// sanitizeTag приводит метки, различающиеся только регистром, к одному написанию.
func (im *Importer) sanitizeTag(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, ",", " "))
	if im.Options.TagSanitizingStrategy == config.TagsAll {
		return strings.ToLower(tag)
	}
	key := strings.ToLower(tag)
	if first, ok := im.tagSpelling[key]; ok {
		return first
	}
	im.tagSpelling[key] = tag
	return tag
}

func (im *Importer) importComments(item *wordpress.Item, dir, postSlug string) error {
	for _, c := range item.Comments {
		status := commentStatus(c.Approved)
		if status == "" {
			im.Logger.Debug("комментарий пропущен", zap.Int("id", c.ID), zap.String("approved", c.Approved))
			continue
		}
		comment := site.Comment{
			ID:          c.ID,
			Status:      status,
			Approved:    c.Approved,
			Author:      c.Author,
			AuthorEmail: c.AuthorEmail,
			AuthorURL:   c.AuthorURL,
			AuthorIP:    c.AuthorIP,
			DateUTC:     c.DateGMT,
			ParentID:    c.Parent,
			UserID:      c.UserID,
			Content:     c.Content,
		}
		name := postSlug + "." + strconv.Itoa(c.ID) + ".wpcl"
		if err := im.writer.WriteComment(filepath.Join(dir, name), comment); err != nil {
			return err
		}
	}
	return nil
}

// commentStatus: спам и корзина не выгружаются, для них пустая строка.
func commentStatus(approved string) string {
	switch approved {
	case "1":
		return "approved"
	case "0":
		return "pending"
	case "spam", "trash":
		return ""
	}
	return approved
}

// --- Языки ---

// localized - поле записи, разложенное по языкам qtranslate.
type localized struct {
	raw string
	tr  *qtranslate.Translations
}

func (im *Importer) localize(text string) localized {
	l := localized{raw: text}
	if !im.Options.SeparateQTranslateContent {
		return l
	}
	// Для REST и GraphQL теги приходят в исходном виде.
	canonical := string(qtranslate.Normalize([]byte(text)))
	if qtranslate.HasTags(canonical) {
		l.tr = qtranslate.Split(canonical)
	}
	return l
}

func (l localized) langs() []string {
	if l.tr == nil || !l.tr.Tagged() {
		return nil
	}
	return l.tr.Langs()
}

// in возвращает текст на языке lang, иначе на языке fallback, иначе на
// первом найденном языке. Поле без тегов возвращается целиком.
func (l localized) in(lang, fallback string) string {
	if l.tr == nil || !l.tr.Tagged() {
		return l.raw
	}
	for _, candidate := range []string{lang, fallback} {
		if s, ok := l.tr.Get(candidate); ok {
			return s
		}
	}
	s, _ := l.tr.Get(l.tr.Langs()[0])
	return s
}

// mergeLangs объединяет языки полей в порядке появления. Пустой список
// означает запись без тегов: один файл с пустым кодом языка.
func mergeLangs(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		out = append(out, list...)
	}
	out = dedupe(out)
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

// translationName подставляет имя файла в шаблон вида "{path}.{lang}.{ext}".
func translationName(pattern, name, lang, ext string) string {
	return strings.NewReplacer("{path}", name, "{lang}", lang, "{ext}", ext).Replace(pattern)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
