package wordpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newGraphQLServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "editor", user)
		assert.Equal(t, "secret", pass)

		var req graphQLRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		var data any
		switch {
		case strings.Contains(req.Query, "generalSettings"):
			data = map[string]any{"generalSettings": map[string]any{
				"title": "GraphQL blog", "description": "desc", "url": "https://gql.test", "language": "fr-FR",
			}}
		case strings.Contains(req.Query, "mediaItems("):
			data = map[string]any{"mediaItems": map[string]any{
				"pageInfo": map[string]any{"endCursor": "m1", "hasNextPage": false},
				"nodes": []map[string]any{{
					"databaseId": 30, "title": "Photo", "caption": "", "slug": "photo", "link": "https://gql.test/photo/",
					"date": "2021-03-04T05:06:07", "dateGmt": "2021-03-04T05:06:07",
					"sourceUrl": "https://gql.test/wp-content/uploads/photo.jpg", "parentDatabaseId": 31,
					"mediaDetails": map[string]any{"width": 1200, "height": 800, "file": "photo.jpg", "sizes": []map[string]any{
						{"name": "thumbnail", "file": "photo-150x150.jpg", "width": "150", "height": "150"},
					}},
				}},
			}}
		case strings.Contains(req.Query, "posts("):
			after, _ := req.Variables["after"].(string)
			node := map[string]any{
				"databaseId": 31, "title": "[:fr]Premier[:en]First[:]", "content": "[:fr]Texte[:en]Text[:]", "excerpt": "",
				"slug": "first", "link": "https://gql.test/first/", "status": "publish",
				"date": "2021-03-04T05:06:07", "dateGmt": "2021-03-04T05:06:07",
				"author":     map[string]any{"node": map[string]any{"name": "Editor"}},
				"categories": map[string]any{"nodes": []map[string]any{{"name": "News", "slug": "news"}}},
				"tags":       map[string]any{"nodes": []map[string]any{{"name": "Go", "slug": "go"}}},
				"comments": map[string]any{"nodes": []map[string]any{{
					"databaseId": 40, "content": "Bravo", "date": "2021-03-05T00:00:00", "dateGmt": "2021-03-05T00:00:00",
					"status": "APPROVE", "parentDatabaseId": 0,
					"author": map[string]any{"node": map[string]any{"name": "Fan", "url": "https://fan.test"}},
				}}},
			}
			hasNext := after == ""
			if after == "p1" {
				node["databaseId"] = 32
				node["slug"] = "second"
			}
			data = map[string]any{"posts": map[string]any{
				"pageInfo": map[string]any{"endCursor": "p1", "hasNextPage": hasNext},
				"nodes":    []map[string]any{node},
			}}
		case strings.Contains(req.Query, "pages("):
			data = map[string]any{"pages": map[string]any{
				"pageInfo": map[string]any{"endCursor": "", "hasNextPage": false},
				"nodes":    []map[string]any{},
			}}
		default:
			t.Errorf("неожиданный запрос: %s", req.Query)
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": data}))
	}))
}

func TestGraphQLSourceFetch(t *testing.T) {
	server := newGraphQLServer(t)
	defer server.Close()

	source := &GraphQLSource{HTTPClient: server.Client(), Auth: "editor:secret", PageSize: 1}
	channel, err := source.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "GraphQL blog", channel.Title)
	assert.Equal(t, "https://gql.test", channel.Link)
	assert.Equal(t, "fr-FR", channel.Language)
	require.Len(t, channel.Items, 3)

	media := channel.Items[0]
	assert.Equal(t, "attachment", media.PostType)
	assert.Equal(t, 31, media.PostParent)
	meta, err := media.AttachmentMetadata()
	require.NoError(t, err)
	assert.Equal(t, 1200, meta.Width)
	assert.Equal(t, []ImageSize{{Name: "thumbnail", File: "photo-150x150.jpg", Width: 150, Height: 150}}, meta.Sizes)

	first := channel.Items[1]
	assert.Equal(t, "[:fr]Premier[:en]First[:]", first.Title)
	assert.Equal(t, "[:fr]Texte[:en]Text[:]", first.Content())
	assert.Equal(t, "Editor", first.Creator)
	assert.Equal(t, "2021-03-04 05:06:07", first.PostDate)
	assert.Equal(t, []Category{
		{Domain: "category", NiceName: "news", Value: "News"},
		{Domain: "post_tag", NiceName: "go", Value: "Go"},
	}, first.Categories)
	require.Len(t, first.Comments, 1)
	assert.Equal(t, "Fan", first.Comments[0].Author)
	assert.Equal(t, "1", first.Comments[0].Approved)

	assert.Equal(t, "second", channel.Items[2].PostName)
}

func TestGraphQLSourceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := (&GraphQLSource{HTTPClient: server.Client()}).Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}
