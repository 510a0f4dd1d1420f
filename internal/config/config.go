// Package config описывает параметры импорта: значения по умолчанию, чтение
// из файла .wpimport.{yaml,toml}, переменных WPIMPORT_* и флагов командной
// строки, проверку.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var ErrNoInput = errors.New("не указан источник: XML-выгрузка или адрес сайта")

// TagStrategy - как приводить теги, различающиеся только регистром.
type TagStrategy string

const (
	// TagsFirst оставляет написание, встреченное первым.
	TagsFirst TagStrategy = "first"
	// TagsAll приводит все теги к нижнему регистру.
	TagsAll TagStrategy = "all"
	// tagsLower - прежнее название TagsAll.
	tagsLower TagStrategy = "lower"
)

// SourceMode - откуда брать записи.
type SourceMode string

const (
	ModeXML     SourceMode = "xml"
	ModeREST    SourceMode = "rest"
	ModeGraphQL SourceMode = "graphql"
)

type Options struct {
	// Source - путь к XML-выгрузке, адрес сайта (rest) или конечная точка GraphQL.
	Source       string     `mapstructure:"source"        validate:"required"`
	OutputFolder string     `mapstructure:"output_folder" validate:"required"`
	Mode         SourceMode `mapstructure:"mode"          validate:"omitempty,oneof=xml rest graphql"`

	ImportIntoExistingSite bool   `mapstructure:"import_into_existing_site"`
	ExcludeDrafts          bool   `mapstructure:"exclude_drafts"`
	ExcludePrivates        bool   `mapstructure:"exclude_privates"`
	NoDownloads            bool   `mapstructure:"no_downloads"`
	DownloadAuth           string `mapstructure:"download_auth" validate:"omitempty,contains=:"`
	APIAuth                string `mapstructure:"api_auth"      validate:"omitempty,contains=:"`
	Workers                int    `mapstructure:"workers"       validate:"gte=0,lte=64"`

	SquashNewlines               bool   `mapstructure:"squash_newlines"`
	HTML2Text                    bool   `mapstructure:"html2text"`
	TransformToHTML              bool   `mapstructure:"transform_to_html"`
	UseWordPressCompiler         bool   `mapstructure:"use_wordpress_compiler"`
	OneFile                      bool   `mapstructure:"one_file"`
	PostFormat                   string `mapstructure:"post_format"   validate:"oneof=wp markdown none"`
	ExportCategoriesAsCategories bool   `mapstructure:"export_categories_as_categories"`
	ExportComments               bool   `mapstructure:"export_comments"`

	TagSanitizingStrategy TagStrategy `mapstructure:"tag_sanitizing_strategy" validate:"oneof=first all"`

	SeparateQTranslateContent bool   `mapstructure:"separate_qtranslate_content"`
	TranslationsPattern       string `mapstructure:"translations_pattern" validate:"required,contains={path},contains={lang},contains={ext}"`
	// DefaultLanguage подменяет язык канала выгрузки.
	DefaultLanguage string `mapstructure:"default_language" validate:"omitempty,bcp47_language_tag"`

	Debug bool `mapstructure:"debug"`
}

// Default возвращает параметры по умолчанию.
func Default() Options {
	return Options{
		Workers:               10,
		PostFormat:            "wp",
		TagSanitizingStrategy: TagsFirst,
		TranslationsPattern:   "{path}.{lang}.{ext}",
	}
}

// setDefaults регистрирует все ключи: без этого Unmarshal не видит значения
// из переменных окружения для ключей, которых нет в файле.
func setDefaults(v *viper.Viper) {
	d := reflect.ValueOf(Default())
	t := d.Type()
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("mapstructure"); key != "" {
			v.SetDefault(key, d.Field(i).Interface())
		}
	}
}

// Load собирает параметры: значения по умолчанию, файл конфигурации (явный
// или .wpimport.* в текущем и домашнем каталоге), переменные WPIMPORT_*,
// флаги. Имена флагов совпадают с ключами, только с дефисами.
func Load(configFile string, flags *pflag.FlagSet) (*Options, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".wpimport")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
		}
	}

	v.SetEnvPrefix("WPIMPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if bindErr == nil {
				bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	opts := Default()
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	return &opts, nil
}

// Validate проверяет параметры и дополняет производные: режим источника и
// каталог результата по умолчанию.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.Source) == "" {
		return ErrNoInput
	}
	if o.TagSanitizingStrategy == tagsLower {
		o.TagSanitizingStrategy = TagsAll
	}
	if o.Mode == "" {
		o.Mode = DetectMode(o.Source)
	}
	if o.OutputFolder == "" {
		o.OutputFolder = "new_site"
	}
	if err := validator.New().Struct(o); err != nil {
		return fmt.Errorf("некорректные параметры: %w", err)
	}
	if o.TransformToHTML && o.UseWordPressCompiler {
		return errors.New("некорректные параметры: transform_to_html и use_wordpress_compiler взаимоисключающие")
	}
	return nil
}

// DetectMode: http(s)-адрес, оканчивающийся на /graphql, - WPGraphQL, прочие
// адреса - REST, остальное - путь к файлу.
func DetectMode(source string) SourceMode {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ModeXML
	}
	if strings.HasSuffix(strings.TrimSuffix(u.Path, "/"), "/graphql") {
		return ModeGraphQL
	}
	return ModeREST
}
