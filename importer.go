package wordpress_importer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"wordpress-importer/download"
	"wordpress-importer/internal/config"
	"wordpress-importer/site"
	"wordpress-importer/transform"
	"wordpress-importer/wordpress"
)

// Result - итог импорта.
type Result struct {
	Context *site.Context
	// URLMap: старый адрес WordPress -> новый адрес на сайте.
	URLMap map[string]string
	// Links: адрес вложения (и его уменьшенных копий) -> локальный путь.
	Links          map[string]string
	Posts          int
	Pages          int
	Attachments    int
	Skipped        int
	ExtraLanguages []string
	Downloads      download.Stats
}

// Importer переносит выгрузку WordPress в каталог сайта.
type Importer struct {
	Options config.Options
	Fs      afero.Fs
	Client  *http.Client
	Logger  *zap.Logger
	Now     func() time.Time

	writer      *site.Writer
	downloader  *download.Downloader
	pipeline    transform.Pipeline
	context     *site.Context
	baseDir     string
	result      *Result
	attachments map[int]map[int]site.AttachmentInfo
	tagSpelling map[string]string
	extraLangs  map[string]bool
}

func New(opts config.Options, fs afero.Fs, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		Options: opts,
		Fs:      fs,
		Client:  &http.Client{Timeout: 60 * time.Second},
		Logger:  logger,
		Now:     time.Now,
	}
}

// Import запускает импорт на реальной файловой системе.
func Import(ctx context.Context, opts *config.Options, logger *zap.Logger) (*Result, error) {
	return New(*opts, afero.NewOsFs(), logger).Run(ctx)
}

func (im *Importer) Run(ctx context.Context) (*Result, error) {
	if err := im.Options.Validate(); err != nil {
		return nil, err
	}
	log := im.Logger

	channel, err := im.loadChannel(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("выгрузка прочитана",
		zap.String("source", im.Options.Source),
		zap.String("mode", string(im.Options.Mode)),
		zap.Int("items", len(channel.Items)))

	im.context = PopulateContext(channel, im.Options)
	im.baseDir = "/"
	if u, err := url.Parse(im.context.BaseURL); err == nil && u.Path != "" {
		im.baseDir = u.Path
	}
	im.writer = site.NewWriter(im.Fs, log)
	im.downloader = download.New(im.Fs, im.Client, im.Options.Workers, log)
	im.downloader.Auth = im.Options.DownloadAuth
	im.pipeline = transform.Pipeline{
		SquashNewlines:       im.Options.SquashNewlines,
		HTMLToMarkdown:       im.Options.HTML2Text,
		ToHTML:               im.Options.TransformToHTML,
		UseWordPressCompiler: im.Options.UseWordPressCompiler,
	}
	im.result = &Result{
		Context: im.context,
		URLMap:  make(map[string]string),
		Links:   make(map[string]string),
	}
	im.attachments = make(map[int]map[int]site.AttachmentInfo)
	im.tagSpelling = make(map[string]string)
	im.extraLangs = make(map[string]bool)

	// Вложения нужны раньше записей: по ним переписываются ссылки.
	for i := range channel.Items {
		if channel.Items[i].PostType == "attachment" {
			im.importAttachment(&channel.Items[i])
		}
	}
	for i := range channel.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := &channel.Items[i]
		switch item.PostType {
		case "attachment":
		case "post", "page":
			if err := im.importPostPage(item); err != nil {
				return nil, err
			}
		default:
			log.Debug("пропускаем запись неподдерживаемого типа",
				zap.String("type", item.PostType), zap.Int("id", item.PostID))
			im.result.Skipped++
		}
	}

	if !im.Options.NoDownloads {
		stats, err := im.downloader.Run(ctx)
		im.result.Downloads = stats
		if err != nil {
			return nil, fmt.Errorf("загрузка вложений прервана: %w", err)
		}
	}

	if err := im.finish(); err != nil {
		return nil, err
	}
	log.Info("импорт завершен",
		zap.Int("posts", im.result.Posts),
		zap.Int("pages", im.result.Pages),
		zap.Int("attachments", im.result.Attachments),
		zap.Int("skipped", im.result.Skipped),
		zap.Strings("extra_languages", im.result.ExtraLanguages))
	return im.result, nil
}

func (im *Importer) loadChannel(ctx context.Context) (*wordpress.Channel, error) {
	opts := im.Options
	switch opts.Mode {
	case config.ModeREST:
		src := &wordpress.RESTSource{Client: im.Client, Auth: opts.APIAuth, Logger: im.Logger}
		return src.Fetch(ctx, opts.Source)
	case config.ModeGraphQL:
		src := &wordpress.GraphQLSource{HTTPClient: im.Client, Auth: opts.APIAuth, Logger: im.Logger}
		return src.Fetch(ctx, opts.Source)
	}
	data, err := afero.ReadFile(im.Fs, opts.Source)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла %s: %w", opts.Source, err)
	}
	return wordpress.ReadWXR(data, opts.SeparateQTranslateContent)
}

// finish пишет карту адресов и конфигурацию сайта.
func (im *Importer) finish() error {
	out := im.Options.OutputFolder
	if err := im.writer.WriteURLMap(filepath.Join(out, "url_map.csv"), im.result.URLMap); err != nil {
		return err
	}

	langs := make([]string, 0, len(im.extraLangs))
	for lang := range im.extraLangs {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	im.result.ExtraLanguages = langs
	im.context.AddTranslations(langs)
	im.context.SetRedirections(site.Redirections(im.result.URLMap, im.baseDir))

	path := site.ConfigurationPath(out, im.Options.ImportIntoExistingSite, im.Now())
	if err := im.writer.WriteConfiguration(path, im.context); err != nil {
		return err
	}
	im.Logger.Info("конфигурация сайта записана", zap.String("path", path))
	return nil
}
