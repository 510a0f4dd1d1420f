package wordpress_importer

import (
	"strings"

	"golang.org/x/text/language"

	"wordpress-importer/internal/config"
	"wordpress-importer/site"
	"wordpress-importer/wordpress"
)

// PopulateContext заполняет конфигурацию сайта по каналу выгрузки.
func PopulateContext(channel *wordpress.Channel, opts config.Options) *site.Context {
	ctx := site.DefaultContext(opts.UseWordPressCompiler)

	lang := opts.DefaultLanguage
	if lang == "" {
		lang = channel.Language
	}
	if lang != "" {
		ctx.DefaultLang = baseLanguage(lang)
	}
	if opts.TranslationsPattern != "" {
		ctx.TranslationsPattern = opts.TranslationsPattern
	}
	if channel.Title != "" {
		ctx.BlogTitle = channel.Title
	}
	if channel.Description != "" {
		ctx.BlogDescription = channel.Description
	}

	base := channel.Link
	if base == "" {
		base = channel.BaseBlogURL
	}
	if base == "" {
		base = channel.BaseSiteURL
	}
	if base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		ctx.BaseURL = base
		ctx.SiteURL = base
	} else {
		ctx.BaseURL = ctx.SiteURL
	}

	if len(channel.Authors) > 0 {
		author := channel.Authors[0]
		if author.Email != "" {
			ctx.BlogEmail = author.Email
		}
		if author.DisplayName != "" {
			ctx.BlogAuthor = author.DisplayName
		}
	}
	ctx.AddTranslations(nil)
	return ctx
}

// baseLanguage: "en-US" -> "en". Нераспознанный тег обрезается до двух букв.
func baseLanguage(tag string) string {
	if t, err := language.Parse(tag); err == nil {
		if base, conf := t.Base(); conf != language.No {
			return base.String()
		}
	}
	tag = strings.ToLower(tag)
	if len(tag) > 2 {
		tag = tag[:2]
	}
	return tag
}
