package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wordpress_importer "wordpress-importer"
	"wordpress-importer/internal/config"
	"wordpress-importer/internal/logger"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "wpimport [flags] <export.xml|адрес сайта> [каталог сайта]",
		Short: "Импорт блога WordPress в статический сайт",
		Long: `Переносит записи, страницы, вложения и комментарии WordPress в каталог
статического сайта. Источник - XML-выгрузка (Инструменты -> Экспорт), адрес сайта
(REST API) или конечная точка WPGraphQL. Контент qTranslate можно разложить по языкам.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if len(args) > 0 {
				if err := flags.Set("source", args[0]); err != nil {
					return err
				}
			}
			if len(args) > 1 {
				if err := flags.Set("output-folder", args[1]); err != nil {
					return err
				}
			}

			opts, err := config.Load(configFile, flags)
			if err != nil {
				return err
			}
			// Источник может прийти из аргументов, файла конфигурации или
			// окружения. Если его нет нигде, только подсказка.
			if opts.Source == "" {
				return cmd.Help()
			}
			log := logger.New(opts.Debug)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			result, err := wordpress_importer.Import(ctx, opts, log)
			if err != nil {
				log.Error("ошибка импорта", zap.Error(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Импортировано: записей %d, страниц %d, вложений %d (пропущено %d). Результат в %s\n",
				result.Posts, result.Pages, result.Attachments, result.Skipped, opts.OutputFolder)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "файл конфигурации (по умолчанию .wpimport.{yaml,toml})")
	f.String("source", "", "XML-выгрузка, адрес сайта или конечная точка GraphQL")
	f.StringP("output-folder", "o", "new_site", "каталог сайта")
	f.String("mode", "", "источник: xml, rest или graphql (по умолчанию определяется по адресу)")
	f.Bool("import-into-existing-site", false, "импорт в существующий сайт: конфигурация пишется в отдельный файл")
	f.BoolP("exclude-drafts", "d", false, "не импортировать черновики")
	f.Bool("exclude-privates", false, "не импортировать закрытые записи")
	f.Bool("no-downloads", false, "не загружать вложения")
	f.String("download-auth", "", "логин:пароль для загрузки вложений (HTTP Basic)")
	f.String("api-auth", "", "логин:пароль приложения для REST и GraphQL")
	f.Int("workers", 10, "число одновременных загрузок")
	f.Bool("squash-newlines", false, "сжимать три и более перевода строки до двух")
	f.Bool("html2text", false, "переводить HTML в Markdown")
	f.Bool("transform-to-html", false, "сразу рендерить текст WordPress в HTML")
	f.Bool("use-wordpress-compiler", false, "оставить текст для компилятора wp")
	f.Bool("one-file", false, "метаданные в начале файла записи, без .meta")
	f.String("post-format", "wp", "формат записей без _tc_post_format: wp, markdown или none")
	f.Bool("export-categories-as-categories", false, "рубрики как category, а не как метки")
	f.Bool("export-comments", false, "выгрузить комментарии в .wpcl")
	f.String("tag-sanitizing-strategy", "first", "метки в разном регистре: first - первое написание, all - нижний регистр")
	f.Bool("separate-qtranslate-content", false, "разложить контент qTranslate по языкам")
	f.String("translations-pattern", "{path}.{lang}.{ext}", "имена файлов переводов")
	f.String("default-language", "", "язык по умолчанию вместо языка выгрузки")
	f.Bool("debug", false, "подробный лог")
	return cmd
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(1)
	}
}
