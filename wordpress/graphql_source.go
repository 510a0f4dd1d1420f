package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shurcooL/graphql"
	"go.uber.org/zap"
)

// --- Запросы WPGraphQL: nodes + pageInfo ---

type gqlTerm struct {
	Name graphql.String
	Slug graphql.String
}

type gqlComment struct {
	DatabaseID       graphql.Int    `graphql:"databaseId"`
	Content          graphql.String `graphql:"content(format: RAW)"`
	Date             graphql.String
	DateGmt          graphql.String
	Status           graphql.String
	ParentDatabaseID graphql.Int `graphql:"parentDatabaseId"`
	Author           struct {
		Node struct {
			Name graphql.String
			URL  graphql.String `graphql:"url"`
		}
	}
}

type gqlPost struct {
	DatabaseID graphql.Int    `graphql:"databaseId"`
	Title      graphql.String `graphql:"title(format: RAW)"`
	Content    graphql.String `graphql:"content(format: RAW)"`
	Excerpt    graphql.String `graphql:"excerpt(format: RAW)"`
	Slug       graphql.String
	Link       graphql.String
	Status     graphql.String
	Date       graphql.String
	DateGmt    graphql.String
	Author     struct {
		Node struct{ Name graphql.String }
	}
	Categories struct{ Nodes []gqlTerm }    `graphql:"categories(first: 100)"`
	Tags       struct{ Nodes []gqlTerm }    `graphql:"tags(first: 100)"`
	Comments   struct{ Nodes []gqlComment } `graphql:"comments(first: 500)"`
}

type gqlPage struct {
	DatabaseID graphql.Int    `graphql:"databaseId"`
	Title      graphql.String `graphql:"title(format: RAW)"`
	Content    graphql.String `graphql:"content(format: RAW)"`
	Slug       graphql.String
	Link       graphql.String
	Status     graphql.String
	Date       graphql.String
	DateGmt    graphql.String
	Author     struct {
		Node struct{ Name graphql.String }
	}
	Comments struct{ Nodes []gqlComment } `graphql:"comments(first: 500)"`
}

type gqlMediaSize struct {
	Name   graphql.String
	File   graphql.String
	Width  graphql.String
	Height graphql.String
}

type gqlMedia struct {
	DatabaseID       graphql.Int    `graphql:"databaseId"`
	Title            graphql.String `graphql:"title(format: RAW)"`
	Caption          graphql.String `graphql:"caption(format: RAW)"`
	Slug             graphql.String
	Link             graphql.String
	Date             graphql.String
	DateGmt          graphql.String
	SourceURL        graphql.String `graphql:"sourceUrl"`
	ParentDatabaseID graphql.Int    `graphql:"parentDatabaseId"`
	MediaDetails     struct {
		Width  graphql.Int
		Height graphql.Int
		File   graphql.String
		Sizes  []gqlMediaSize
	}
}

type gqlPageInfo struct {
	EndCursor   graphql.String
	HasNextPage graphql.Boolean
}

type gqlSettingsQuery struct {
	GeneralSettings struct {
		Title       graphql.String
		Description graphql.String
		URL         graphql.String `graphql:"url"`
		Language    graphql.String
	}
}

type gqlPostsQuery struct {
	Posts struct {
		PageInfo gqlPageInfo
		Nodes    []gqlPost
	} `graphql:"posts(first: $first, after: $after)"`
}

type gqlPagesQuery struct {
	Pages struct {
		PageInfo gqlPageInfo
		Nodes    []gqlPage
	} `graphql:"pages(first: $first, after: $after)"`
}

type gqlMediaQuery struct {
	MediaItems struct {
		PageInfo gqlPageInfo
		Nodes    []gqlMedia
	} `graphql:"mediaItems(first: $first, after: $after)"`
}

// GraphQLSource загружает сайт через плагин WPGraphQL.
type GraphQLSource struct {
	HTTPClient *http.Client
	Auth       string
	Logger     *zap.Logger
	PageSize   int
}

func (s *GraphQLSource) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

// Fetch загружает настройки сайта, вложения, записи и страницы.
func (s *GraphQLSource) Fetch(ctx context.Context, endpoint string) (*Channel, error) {
	httpClient := s.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if user, pass, ok := strings.Cut(s.Auth, ":"); ok {
		withAuth := *httpClient
		withAuth.Transport = &basicAuthTransport{user: user, pass: pass, base: httpClient.Transport}
		httpClient = &withAuth
	}
	client := graphql.NewClient(endpoint, httpClient)
	first := s.PageSize
	if first <= 0 {
		first = 50
	}

	var settings gqlSettingsQuery
	if err := client.Query(ctx, &settings, nil); err != nil {
		return nil, fmt.Errorf("запрос настроек сайта: %w", err)
	}
	channel := &Channel{
		Title:       string(settings.GeneralSettings.Title),
		Description: string(settings.GeneralSettings.Description),
		Link:        string(settings.GeneralSettings.URL),
		Language:    string(settings.GeneralSettings.Language),
	}

	var cursor *graphql.String
	for hasNextPage := true; hasNextPage; {
		var q gqlMediaQuery
		if err := client.Query(ctx, &q, pageVariables(first, cursor)); err != nil {
			return nil, fmt.Errorf("запрос вложений: %w", err)
		}
		for _, m := range q.MediaItems.Nodes {
			channel.Items = append(channel.Items, gqlMediaItem(m))
		}
		hasNextPage, cursor = nextPage(q.MediaItems.PageInfo)
	}

	cursor = nil
	for hasNextPage := true; hasNextPage; {
		var q gqlPostsQuery
		if err := client.Query(ctx, &q, pageVariables(first, cursor)); err != nil {
			return nil, fmt.Errorf("запрос записей: %w", err)
		}
		s.log().Info("загружены записи GraphQL", zap.Int("count", len(q.Posts.Nodes)))
		for _, p := range q.Posts.Nodes {
			item := Item{
				Title:       string(p.Title),
				Link:        string(p.Link),
				Creator:     string(p.Author.Node.Name),
				PostID:      int(p.DatabaseID),
				PostName:    string(p.Slug),
				Status:      string(p.Status),
				PostType:    "post",
				PostDate:    convertRESTTime(string(p.Date)),
				PostDateGMT: convertRESTTime(string(p.DateGmt)),
				Comments:    gqlComments(p.Comments.Nodes),
			}
			item.SetContent(string(p.Content))
			item.SetExcerpt(string(p.Excerpt))
			for _, t := range p.Categories.Nodes {
				item.Categories = append(item.Categories, Category{Domain: "category", NiceName: string(t.Slug), Value: string(t.Name)})
			}
			for _, t := range p.Tags.Nodes {
				item.Categories = append(item.Categories, Category{Domain: "post_tag", NiceName: string(t.Slug), Value: string(t.Name)})
			}
			channel.Items = append(channel.Items, item)
		}
		hasNextPage, cursor = nextPage(q.Posts.PageInfo)
	}

	cursor = nil
	for hasNextPage := true; hasNextPage; {
		var q gqlPagesQuery
		if err := client.Query(ctx, &q, pageVariables(first, cursor)); err != nil {
			return nil, fmt.Errorf("запрос страниц: %w", err)
		}
		s.log().Info("загружены страницы GraphQL", zap.Int("count", len(q.Pages.Nodes)))
		for _, p := range q.Pages.Nodes {
			item := Item{
				Title:       string(p.Title),
				Link:        string(p.Link),
				Creator:     string(p.Author.Node.Name),
				PostID:      int(p.DatabaseID),
				PostName:    string(p.Slug),
				Status:      string(p.Status),
				PostType:    "page",
				PostDate:    convertRESTTime(string(p.Date)),
				PostDateGMT: convertRESTTime(string(p.DateGmt)),
				Comments:    gqlComments(p.Comments.Nodes),
			}
			item.SetContent(string(p.Content))
			channel.Items = append(channel.Items, item)
		}
		hasNextPage, cursor = nextPage(q.Pages.PageInfo)
	}

	return channel, nil
}

func pageVariables(first int, after *graphql.String) map[string]interface{} {
	return map[string]interface{}{
		"first": graphql.Int(first),
		"after": after,
	}
}

func nextPage(info gqlPageInfo) (bool, *graphql.String) {
	cursor := info.EndCursor
	return bool(info.HasNextPage), &cursor
}

func gqlComments(nodes []gqlComment) []Comment {
	comments := make([]Comment, 0, len(nodes))
	for _, c := range nodes {
		comments = append(comments, Comment{
			ID:        int(c.DatabaseID),
			Author:    string(c.Author.Node.Name),
			AuthorURL: string(c.Author.Node.URL),
			Date:      convertRESTTime(string(c.Date)),
			DateGMT:   convertRESTTime(string(c.DateGmt)),
			Content:   string(c.Content),
			Approved:  gqlCommentApproval(string(c.Status)),
			Parent:    int(c.ParentDatabaseID),
		})
	}
	return comments
}

// CommentStatusEnum: APPROVE, HOLD, SPAM, TRASH.
func gqlCommentApproval(status string) string {
	switch strings.ToUpper(status) {
	case "APPROVE":
		return "1"
	case "SPAM", "TRASH":
		return strings.ToLower(status)
	}
	return "0"
}

func gqlMediaItem(m gqlMedia) Item {
	item := Item{
		Title:         string(m.Title),
		Link:          string(m.Link),
		PostID:        int(m.DatabaseID),
		PostName:      string(m.Slug),
		Status:        "inherit",
		PostType:      "attachment",
		PostParent:    int(m.ParentDatabaseID),
		PostDate:      convertRESTTime(string(m.Date)),
		PostDateGMT:   convertRESTTime(string(m.DateGmt)),
		AttachmentURL: string(m.SourceURL),
	}
	item.SetExcerpt(string(m.Caption))
	meta := &AttachmentMetadata{
		Width:  int(m.MediaDetails.Width),
		Height: int(m.MediaDetails.Height),
		File:   string(m.MediaDetails.File),
	}
	// WPGraphQL отдает размеры миниатюр строками.
	for _, size := range m.MediaDetails.Sizes {
		w, _ := phpInt(string(size.Width))
		h, _ := phpInt(string(size.Height))
		meta.Sizes = append(meta.Sizes, ImageSize{Name: string(size.Name), File: string(size.File), Width: w, Height: h})
	}
	sortSizes(meta.Sizes)
	item.Attachment = meta
	return item
}

type basicAuthTransport struct {
	user, pass string
	base       http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.SetBasicAuth(t.user, t.pass)
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
