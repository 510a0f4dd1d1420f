package wordpress_importer

import (
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"wordpress-importer/site"
	"wordpress-importer/wordpress"
)

// importAttachment ставит файл вложения и его уменьшенные копии в очередь
// загрузки, запоминает локальные ссылки и сведения для .attachments.json
// записи-владельца.
func (im *Importer) importAttachment(item *wordpress.Item) {
	log := im.Logger.With(zap.Int("id", item.PostID), zap.String("url", item.AttachmentURL))
	local, ok := im.queueFile(item.AttachmentURL)
	if !ok {
		log.Warn("у вложения нет корректного адреса файла")
		im.result.Skipped++
		return
	}
	if item.Link != "" {
		im.result.Links[item.Link] = local
	}

	info := site.AttachmentInfo{
		Title:             item.Title,
		Excerpt:           item.Excerpt(),
		Content:           item.Content(),
		DateUTC:           item.PostDateGMT,
		WordPressUserName: item.Creator,
		Files:             []string{local},
		FilesMeta:         []site.FileMeta{{}},
	}

	meta, err := item.AttachmentMetadata()
	if err != nil {
		log.Warn("не удалось разобрать метаданные вложения", zap.Error(err))
	}
	if meta != nil {
		info.FilesMeta[0] = site.FileMeta{Width: meta.Width, Height: meta.Height}
		info.ImageMeta = meta.ImageMeta
		dir := item.AttachmentURL[:strings.LastIndex(item.AttachmentURL, "/")+1]
		for _, size := range meta.Sizes {
			sizePath, ok := im.queueFile(dir + size.File)
			if !ok {
				continue
			}
			info.Files = append(info.Files, sizePath)
			info.FilesMeta = append(info.FilesMeta, site.FileMeta{Width: size.Width, Height: size.Height, Size: size.Name})
		}
	}

	if im.attachments[item.PostParent] == nil {
		im.attachments[item.PostParent] = make(map[int]site.AttachmentInfo)
	}
	im.attachments[item.PostParent][item.PostID] = info
	im.result.Attachments++
	log.Debug("вложение обработано", zap.Int("files", len(info.Files)))
}

// queueFile: файл ложится в <output>/files/<путь адреса>, на сайте доступен
// по пути адреса. Возвращает этот путь как локальную ссылку.
func (im *Importer) queueFile(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "", false
	}
	dest := filepath.Join(im.Options.OutputFolder, "files", filepath.FromSlash(u.Path))
	if im.Options.NoDownloads {
		im.Logger.Debug("загрузка отключена", zap.String("url", rawURL))
	} else {
		im.downloader.Queue(rawURL, dest)
	}
	im.result.Links[rawURL] = u.Path
	return u.Path, true
}
