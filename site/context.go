package site

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ImporterName входит в имя конфигурации при импорте в существующий сайт.
const ImporterName = "import_wordpress"

// PostRule - правило генератора: какие исходники, куда и с каким шаблоном.
type PostRule struct {
	Glob     string `toml:"glob"`
	Dest     string `toml:"destination"`
	Template string `toml:"template"`
}

// Redirection - перенаправление со старого адреса WordPress на новую страницу.
type Redirection struct {
	From string
	To   string
}

// Context - конфигурация сайта, собранная по выгрузке.
type Context struct {
	DefaultLang         string              `toml:"DEFAULT_LANG"`
	Translations        map[string]string   `toml:"TRANSLATIONS"`
	TranslationsPattern string              `toml:"TRANSLATIONS_PATTERN"`
	BlogTitle           string              `toml:"BLOG_TITLE"`
	BlogDescription     string              `toml:"BLOG_DESCRIPTION"`
	SiteURL             string              `toml:"SITE_URL"`
	BaseURL             string              `toml:"BASE_URL"`
	BlogEmail           string              `toml:"BLOG_EMAIL"`
	BlogAuthor          string              `toml:"BLOG_AUTHOR"`
	Posts               []PostRule          `toml:"POSTS"`
	Pages               []PostRule          `toml:"PAGES"`
	Compilers           map[string][]string `toml:"COMPILERS"`
	Redirections        [][2]string         `toml:"REDIRECTIONS"`
}

// DefaultContext заполняет правила и компиляторы для поддерживаемых расширений.
func DefaultContext(useWordPressCompiler bool) *Context {
	ctx := &Context{
		DefaultLang:         "en",
		TranslationsPattern: "{path}.{lang}.{ext}",
		BlogTitle:           "PUT TITLE HERE",
		BlogDescription:     "PUT DESCRIPTION HERE",
		SiteURL:             "http://example.com/",
		BlogEmail:           "joe@example.com",
		BlogAuthor:          "Joe Example",
		Compilers: map[string][]string{
			"rest":     {"rst", "txt"},
			"markdown": {"md", "mdown", "markdown"},
			"html":     {"html", "htm"},
		},
	}
	extensions := []string{"rst", "txt", "md", "html"}
	if useWordPressCompiler {
		extensions = append(extensions, "wp")
		ctx.Compilers["wordpress"] = []string{"wp"}
	}
	for _, ext := range extensions {
		ctx.Posts = append(ctx.Posts, PostRule{Glob: "posts/*." + ext, Dest: "posts", Template: "post.tmpl"})
		ctx.Pages = append(ctx.Pages, PostRule{Glob: "pages/*." + ext, Dest: "pages", Template: "page.tmpl"})
	}
	ctx.Translations = map[string]string{ctx.DefaultLang: ""}
	return ctx
}

// AddTranslations объявляет языки, найденные при разделении qtranslate.
// Язык по умолчанию остается в корне, остальные - в ./xx.
func (c *Context) AddTranslations(langs []string) {
	c.Translations = map[string]string{c.DefaultLang: ""}
	for _, lang := range langs {
		if lang != "" && lang != c.DefaultLang {
			c.Translations[lang] = "./" + lang
		}
	}
}

// SetRedirections переносит перенаправления в конфигурацию.
func (c *Context) SetRedirections(redirections []Redirection) {
	c.Redirections = make([][2]string, 0, len(redirections))
	for _, r := range redirections {
		c.Redirections = append(c.Redirections, [2]string{r.From, r.To})
	}
}

// Redirections строит перенаправления по карте адресов: путь старого адреса
// + index.html -> путь нового. Корневой index.html (с учетом baseDir) пропускается.
func Redirections(urlMap map[string]string, baseDir string) []Redirection {
	index := strings.TrimPrefix(baseDir+"index.html", "/")
	var out []Redirection
	for from, to := range urlMap {
		if !strings.HasSuffix(from, "/") {
			from += "/"
		}
		src := strings.TrimPrefix(urlPath(from)+"index.html", "/")
		if src == index {
			continue
		}
		out = append(out, Redirection{From: src, To: urlPath(to)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

// ConfigurationPath - conf.toml в каталоге сайта или, при импорте в
// существующий сайт, отдельный файл с отметкой времени.
func ConfigurationPath(outputFolder string, intoExisting bool, now time.Time) string {
	filename := "conf.toml"
	if intoExisting {
		filename = "conf.toml." + ImporterName + "-" + now.Format("20060102_150405") + ".toml"
	}
	return filepath.Join(outputFolder, filename)
}
