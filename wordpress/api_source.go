package wordpress

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrUnexpectedStatus = errors.New("неожиданный HTTP-статус")

const (
	ContentNamespace = "http://purl.org/rss/1.0/modules/content/"
	ExcerptNamespace = "http://wordpress.org/export/1.2/excerpt/"

	restTimeLayout = "2006-01-02T15:04:05"
	wxrTimeLayout  = "2006-01-02 15:04:05"
)

// SetContent и SetExcerpt заполняют поля так же, как это делает разбор WXR.
func (it *Item) SetContent(s string) { it.setEncoded(ContentNamespace, s) }
func (it *Item) SetExcerpt(s string) { it.setEncoded(ExcerptNamespace, s) }

func (it *Item) setEncoded(space, s string) {
	for i := range it.Encodeds {
		if it.Encodeds[i].XMLName.Space == space {
			it.Encodeds[i].Data = s
			return
		}
	}
	it.Encodeds = append(it.Encodeds, Encoded{XMLName: xml.Name{Space: space, Local: "encoded"}, Data: s})
}

// --- Структуры для обоих API ---
type wpComSite struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"URL"`
	Lang        string `json:"lang"`
}
type wpComTerm struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
type wpComAuthor struct {
	Name string `json:"name"`
}
type wpComPost struct {
	ID         int                  `json:"ID"`
	URL        string               `json:"URL"`
	Date       string               `json:"date"`
	Title      string               `json:"title"`
	Content    string               `json:"content"`
	Excerpt    string               `json:"excerpt"`
	Slug       string               `json:"slug"`
	Status     string               `json:"status"`
	Type       string               `json:"type"`
	Author     wpComAuthor          `json:"author"`
	Tags       map[string]wpComTerm `json:"tags"`
	Categories map[string]wpComTerm `json:"categories"`
}
type wpComComment struct {
	ID      int    `json:"ID"`
	Date    string `json:"date"`
	Content string `json:"content"`
	Status  string `json:"status"`
	Author  struct {
		Name string `json:"name"`
		URL  string `json:"URL"`
	} `json:"author"`
	Parent any `json:"parent"`
}

type selfHostedSite struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Home        string `json:"home"`
}
type renderedField struct {
	Raw      string `json:"raw"`
	Rendered string `json:"rendered"`
}

// Value предпочитает исходный текст (context=edit): только в нем сохранены теги qtranslate.
func (f renderedField) Value() string {
	if f.Raw != "" {
		return f.Raw
	}
	return html.UnescapeString(f.Rendered)
}

type selfHostedTerm struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}
type selfHostedPost struct {
	ID       int           `json:"id"`
	Date     string        `json:"date"`
	DateGMT  string        `json:"date_gmt"`
	Slug     string        `json:"slug"`
	Status   string        `json:"status"`
	Type     string        `json:"type"`
	Link     string        `json:"link"`
	Parent   int           `json:"parent"`
	Title    renderedField `json:"title"`
	Content  renderedField `json:"content"`
	Excerpt  renderedField `json:"excerpt"`
	Embedded struct {
		Author []struct {
			Name string `json:"name"`
		} `json:"author"`
		WpTerm [][]selfHostedTerm `json:"wp:term"`
	} `json:"_embedded"`
}
type selfHostedMedia struct {
	ID           int           `json:"id"`
	Date         string        `json:"date"`
	DateGMT      string        `json:"date_gmt"`
	Slug         string        `json:"slug"`
	Link         string        `json:"link"`
	Post         int           `json:"post"`
	Title        renderedField `json:"title"`
	Caption      renderedField `json:"caption"`
	Description  renderedField `json:"description"`
	SourceURL    string        `json:"source_url"`
	MediaDetails struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		File   string `json:"file"`
		Sizes  map[string]struct {
			File   string `json:"file"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"sizes"`
	} `json:"media_details"`
}
type selfHostedComment struct {
	ID         int           `json:"id"`
	Post       int           `json:"post"`
	Parent     int           `json:"parent"`
	AuthorName string        `json:"author_name"`
	AuthorURL  string        `json:"author_url"`
	Author     int           `json:"author"`
	Date       string        `json:"date"`
	DateGMT    string        `json:"date_gmt"`
	Status     string        `json:"status"`
	Content    renderedField `json:"content"`
}

// RESTSource загружает сайт через REST API: wordpress.com (public-api v1.1)
// или самостоятельный хостинг (wp-json/wp/v2).
type RESTSource struct {
	Client *http.Client
	// Auth - "пользователь:пароль приложения". С ним запросы идут с context=edit.
	Auth   string
	Logger *zap.Logger
	// Pause между страницами, чтобы не упереться в ограничения API.
	Pause time.Duration
	// Endpoint подменяет https://public-api.wordpress.com (для тестов).
	WpComEndpoint string
}

func (s *RESTSource) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (s *RESTSource) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

// Fetch загружает записи, страницы и комментарии и собирает из них Channel,
// с которым дальше работает тот же импорт, что и для XML-выгрузки.
func (s *RESTSource) Fetch(ctx context.Context, siteURL string) (*Channel, error) {
	parsedURL, err := url.Parse(siteURL)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("некорректный URL: %s", siteURL)
	}
	if strings.HasSuffix(parsedURL.Host, ".wordpress.com") {
		return s.fetchWpCom(ctx, parsedURL.Host)
	}
	return s.fetchSelfHosted(ctx, parsedURL)
}

func (s *RESTSource) fetchWpCom(ctx context.Context, host string) (*Channel, error) {
	base := s.WpComEndpoint
	if base == "" {
		base = "https://public-api.wordpress.com"
	}
	base = strings.TrimSuffix(base, "/") + "/rest/v1.1/sites/" + host

	channel := &Channel{Link: "https://" + host + "/"}
	var site wpComSite
	if _, err := s.getJSON(ctx, base, &site); err != nil {
		s.log().Warn("не удалось получить информацию о сайте", zap.Error(err))
	} else {
		channel.Title, channel.Description, channel.Language = site.Name, site.Description, site.Lang
		if site.URL != "" {
			channel.Link = site.URL
		}
	}

	for _, postType := range []string{"post", "page"} {
		for page := 1; ; page++ {
			apiURL := fmt.Sprintf("%s/posts?page=%d&number=100&type=%s&status=any&fields=ID,URL,date,title,content,excerpt,author,tags,categories,slug,status,type", base, page, postType)
			s.log().Info("запрос к API постов", zap.String("url", apiURL))
			var resp struct {
				Posts []wpComPost `json:"posts"`
			}
			if _, err := s.getJSON(ctx, apiURL, &resp); err != nil {
				if page > 1 {
					break
				}
				return nil, err
			}
			if len(resp.Posts) == 0 {
				break
			}
			for _, p := range resp.Posts {
				item := wpComItem(p, postType)
				comments, err := s.fetchWpComComments(ctx, base, p.ID)
				if err != nil {
					s.log().Warn("не удалось загрузить комментарии", zap.Int("post", p.ID), zap.Error(err))
				}
				item.Comments = comments
				channel.Items = append(channel.Items, item)
			}
			s.log().Info("загружены посты", zap.Int("count", len(resp.Posts)), zap.Int("page", page))
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}
	}
	return channel, nil
}

func wpComItem(p wpComPost, postType string) Item {
	item := Item{
		Title:       html.UnescapeString(p.Title),
		Link:        p.URL,
		Creator:     p.Author.Name,
		PostID:      p.ID,
		PostName:    p.Slug,
		Status:      p.Status,
		PostType:    p.Type,
		PostDate:    convertRESTTime(p.Date),
		PostDateGMT: convertRESTTime(p.Date),
	}
	if item.PostType == "" {
		item.PostType = postType
	}
	item.SetContent(p.Content)
	item.SetExcerpt(p.Excerpt)
	for _, t := range p.Categories {
		item.Categories = append(item.Categories, Category{Domain: "category", NiceName: t.Slug, Value: t.Name})
	}
	for _, t := range p.Tags {
		item.Categories = append(item.Categories, Category{Domain: "post_tag", NiceName: t.Slug, Value: t.Name})
	}
	return item
}

func (s *RESTSource) fetchWpComComments(ctx context.Context, base string, postID int) ([]Comment, error) {
	apiURL := fmt.Sprintf("%s/posts/%d/replies/?order=ASC&number=100", base, postID)
	s.log().Debug("запрос комментариев", zap.String("url", apiURL))
	var resp struct {
		Comments []wpComComment `json:"comments"`
	}
	if _, err := s.getJSON(ctx, apiURL, &resp); err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(resp.Comments))
	for _, c := range resp.Comments {
		comment := Comment{
			ID:        c.ID,
			Author:    c.Author.Name,
			AuthorURL: c.Author.URL,
			Date:      convertRESTTime(c.Date),
			DateGMT:   convertRESTTime(c.Date),
			Content:   c.Content,
			Approved:  restCommentApproval(c.Status),
		}
		if parent, ok := c.Parent.(map[string]any); ok {
			if id, ok := parent["ID"].(float64); ok {
				comment.Parent = int(id)
			}
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func (s *RESTSource) fetchSelfHosted(ctx context.Context, siteURL *url.URL) (*Channel, error) {
	root := fmt.Sprintf("%s://%s%s", siteURL.Scheme, siteURL.Host, strings.TrimSuffix(siteURL.Path, "/"))
	channel := &Channel{Link: root + "/"}

	var site selfHostedSite
	if _, err := s.getJSON(ctx, root+"/wp-json/", &site); err != nil {
		s.log().Warn("не удалось получить информацию о сайте", zap.Error(err))
	} else {
		channel.Title, channel.Description = site.Name, site.Description
		channel.BaseSiteURL = site.URL
		if site.Home != "" {
			channel.Link = strings.TrimSuffix(site.Home, "/") + "/"
		}
	}

	edit := ""
	if s.Auth != "" {
		edit = "&context=edit"
	}

	items := make(map[int]*Item)
	var order []int
	for _, postType := range []string{"posts", "pages"} {
		var posts []selfHostedPost
		if err := s.paginate(ctx, fmt.Sprintf("%s/wp-json/wp/v2/%s?per_page=100&status=any&_embed=author,wp:term%s", root, postType, edit), func(body []byte) (int, error) {
			var page []selfHostedPost
			if err := json.Unmarshal(body, &page); err != nil {
				return 0, err
			}
			posts = append(posts, page...)
			return len(page), nil
		}); err != nil {
			return nil, err
		}
		for _, p := range posts {
			item := selfHostedItem(p)
			items[p.ID] = &item
			order = append(order, p.ID)
		}
	}

	var media []selfHostedMedia
	if err := s.paginate(ctx, fmt.Sprintf("%s/wp-json/wp/v2/media?per_page=100%s", root, edit), func(body []byte) (int, error) {
		var page []selfHostedMedia
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, err
		}
		media = append(media, page...)
		return len(page), nil
	}); err != nil {
		s.log().Warn("не удалось загрузить вложения", zap.Error(err))
	}

	var comments []selfHostedComment
	if err := s.paginate(ctx, fmt.Sprintf("%s/wp-json/wp/v2/comments?per_page=100&order=asc%s", root, edit), func(body []byte) (int, error) {
		var page []selfHostedComment
		if err := json.Unmarshal(body, &page); err != nil {
			return 0, err
		}
		comments = append(comments, page...)
		return len(page), nil
	}); err != nil {
		s.log().Warn("не удалось загрузить комментарии", zap.Error(err))
	}
	for _, c := range comments {
		item, ok := items[c.Post]
		if !ok {
			continue
		}
		item.Comments = append(item.Comments, Comment{
			ID:        c.ID,
			Author:    c.AuthorName,
			AuthorURL: c.AuthorURL,
			Date:      convertRESTTime(c.Date),
			DateGMT:   convertRESTTime(c.DateGMT),
			Content:   c.Content.Value(),
			Approved:  restCommentApproval(c.Status),
			Parent:    c.Parent,
			UserID:    c.Author,
		})
	}

	// Вложения идут первыми, как в XML-выгрузке они обычно предшествуют записям.
	for _, m := range media {
		channel.Items = append(channel.Items, mediaItem(m))
	}
	for _, id := range order {
		channel.Items = append(channel.Items, *items[id])
	}
	return channel, nil
}

func selfHostedItem(p selfHostedPost) Item {
	item := Item{
		Title:       p.Title.Value(),
		Link:        p.Link,
		PostID:      p.ID,
		PostName:    p.Slug,
		Status:      p.Status,
		PostType:    p.Type,
		PostParent:  p.Parent,
		PostDate:    convertRESTTime(p.Date),
		PostDateGMT: convertRESTTime(p.DateGMT),
	}
	if len(p.Embedded.Author) > 0 {
		item.Creator = html.UnescapeString(p.Embedded.Author[0].Name)
	}
	item.SetContent(p.Content.Value())
	item.SetExcerpt(p.Excerpt.Value())
	for _, termList := range p.Embedded.WpTerm {
		for _, term := range termList {
			item.Categories = append(item.Categories, Category{Domain: term.Taxonomy, NiceName: term.Slug, Value: html.UnescapeString(term.Name)})
		}
	}
	return item
}

func mediaItem(m selfHostedMedia) Item {
	item := Item{
		Title:         m.Title.Value(),
		Link:          m.Link,
		PostID:        m.ID,
		PostName:      m.Slug,
		Status:        "inherit",
		PostType:      "attachment",
		PostParent:    m.Post,
		PostDate:      convertRESTTime(m.Date),
		PostDateGMT:   convertRESTTime(m.DateGMT),
		AttachmentURL: m.SourceURL,
	}
	item.SetContent(m.Description.Value())
	item.SetExcerpt(m.Caption.Value())
	meta := &AttachmentMetadata{Width: m.MediaDetails.Width, Height: m.MediaDetails.Height, File: m.MediaDetails.File}
	for name, size := range m.MediaDetails.Sizes {
		if name == "full" || size.File == "" {
			continue
		}
		meta.Sizes = append(meta.Sizes, ImageSize{Name: name, File: size.File, Width: size.Width, Height: size.Height})
	}
	sortSizes(meta.Sizes)
	item.Attachment = meta
	return item
}

// paginate проходит страницы, пока API не вернет пустой список или ошибку
// за пределами первой страницы (WordPress отвечает 400 на page > total).
func (s *RESTSource) paginate(ctx context.Context, apiURL string, handle func(body []byte) (int, error)) error {
	for page := 1; ; page++ {
		pageURL := fmt.Sprintf("%s&page=%d", apiURL, page)
		s.log().Info("запрос к API", zap.String("url", pageURL))
		body, header, err := s.get(ctx, pageURL)
		if err != nil {
			if page > 1 {
				return nil
			}
			return err
		}
		n, err := handle(body)
		if err != nil {
			return fmt.Errorf("ошибка разбора ответа %s: %w", pageURL, err)
		}
		if n == 0 {
			return nil
		}
		if total, err := strconv.Atoi(header.Get("X-WP-TotalPages")); err == nil && page >= total {
			return nil
		}
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
}

func (s *RESTSource) getJSON(ctx context.Context, apiURL string, v any) (http.Header, error) {
	body, header, err := s.get(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа %s: %w", apiURL, err)
	}
	return header, nil
}

func (s *RESTSource) get(ctx context.Context, apiURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, nil, err
	}
	if user, pass, ok := strings.Cut(s.Auth, ":"); ok {
		req.SetBasicAuth(user, pass)
	}
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("%w: %s (%s)", ErrUnexpectedStatus, resp.Status, apiURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return body, resp.Header, nil
}

func (s *RESTSource) pause(ctx context.Context) error {
	if s.Pause <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.Pause):
		return nil
	}
}

// convertRESTTime приводит дату API к формату выгрузки. Непонятные значения
// возвращаются как есть.
func convertRESTTime(s string) string {
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(wxrTimeLayout)
	}
	if t, err := time.Parse(restTimeLayout, s); err == nil {
		return t.Format(wxrTimeLayout)
	}
	return s
}

func restCommentApproval(status string) string {
	switch status {
	case "approved":
		return "1"
	case "spam", "trash":
		return status
	}
	return "0"
}
