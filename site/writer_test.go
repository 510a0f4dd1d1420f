package site

import (
	"encoding/json"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter(t *testing.T) (*Writer, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewWriter(fs, nil), fs
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteContentDoesNotDestroyText(t *testing.T) {
	w, fs := newTestWriter(t)
	require.NoError(t, w.WriteContent("some_file", "FOO", nil))
	assert.Equal(t, "FOO", readFile(t, fs, "some_file"))
}

func TestWriteContentRewritesLinks(t *testing.T) {
	w, fs := newTestWriter(t)
	links := map[string]string{"http://some.blog/wp-content/uploads/a.png": "/wp-content/uploads/a.png"}
	require.NoError(t, w.WriteContent("new_site/posts/2012/12/a.md", `Ümlaut <img src="http://some.blog/wp-content/uploads/a.png" />`, links))
	assert.Equal(t, `Ümlaut <img src="/wp-content/uploads/a.png"/>`, readFile(t, fs, "new_site/posts/2012/12/a.md"))
}

func TestWriteMetadataAndOneFile(t *testing.T) {
	w, fs := newTestWriter(t)
	meta := NewMetadata("T", "t", "2012-12-03 10:00:00")

	require.NoError(t, w.WriteMetadata("out/pages/t.meta", meta))
	assert.Equal(t, meta.String(), readFile(t, fs, "out/pages/t.meta"))

	require.NoError(t, w.WriteOneFile("out/pages/t.md", meta, "body", nil))
	assert.Equal(t, "<!--\n"+meta.String()+"-->\n\nbody", readFile(t, fs, "out/pages/t.md"))
}

func TestWriteAttachmentsInfo(t *testing.T) {
	w, fs := newTestWriter(t)
	info := map[int]AttachmentInfo{10: {
		Title:             "Arzt+Pfusch - S.I.C.K.",
		Excerpt:           "Arzt+Pfusch - S.I.C.K.",
		Content:           "Das Cover von Arzt+Pfusch - S.I.C.K.",
		DateUTC:           "2009-07-16 19:40:37",
		WordPressUserName: "Niko",
		Files:             []string{"/wp-content/uploads/2008/07/arzt_und_pfusch-sick-cover.png", "/wp-content/uploads/2008/07/arzt_und_pfusch-sick-cover-150x150.png"},
		FilesMeta:         []FileMeta{{Width: 300, Height: 299}, {Width: 150, Height: 150, Size: "thumbnail"}},
	}}
	require.NoError(t, w.WriteAttachmentsInfo("new_site/posts/2008/07/arzt-und-pfusch-s-i-c-k.attachments.json", info))

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(readFile(t, fs, "new_site/posts/2008/07/arzt-und-pfusch-s-i-c-k.attachments.json")), &got))
	require.Contains(t, got, "10")
	assert.Equal(t, "Niko", got["10"]["wordpress_user_name"])
	assert.Equal(t, []any{
		map[string]any{"width": 300.0, "height": 299.0},
		map[string]any{"width": 150.0, "height": 150.0, "size": "thumbnail"},
	}, got["10"]["files_meta"])
	assert.NotContains(t, got["10"], "image_meta")
}

func TestWriteComment(t *testing.T) {
	w, fs := newTestWriter(t)
	require.NoError(t, w.WriteComment("c/21.wpcl", Comment{
		ID: 21, Status: "approved", Approved: "1", Author: "Reader", AuthorEmail: "reader@example.com",
		AuthorURL: "http://reader.example.com/", AuthorIP: "192.0.2.10", DateUTC: "2012-12-04 08:00:00",
		ParentID: 20, Content: "Nice\npicture!",
	}))
	assert.Equal(t, `.. id: 21
.. status: approved
.. approved: 1
.. author: Reader
.. author_email: reader@example.com
.. author_url: http://reader.example.com/
.. author_IP: 192.0.2.10
.. date_utc: 2012-12-04 08:00:00
.. parent_id: 20

Nice
picture!`, readFile(t, fs, "c/21.wpcl"))
}

func TestWriteURLMap(t *testing.T) {
	w, fs := newTestWriter(t)
	require.NoError(t, w.WriteURLMap("new_site/url_map.csv", map[string]string{
		"http://some.blog/kontakt/":      "http://some.blog/pages/kontakt.html",
		"http://some.blog/2007/04/hoert/": "http://some.blog/posts/2007/04/hoert.html",
		"http://some.blog/?p=1,2":         "http://some.blog/posts/1.html",
	}))
	assert.Equal(t, "http://some.blog/2007/04/hoert/,http://some.blog/posts/2007/04/hoert.html\n"+
		"\"http://some.blog/?p=1,2\",http://some.blog/posts/1.html\n"+
		"http://some.blog/kontakt/,http://some.blog/pages/kontakt.html\n",
		readFile(t, fs, "new_site/url_map.csv"))
}

func TestWriteConfiguration(t *testing.T) {
	w, fs := newTestWriter(t)
	ctx := DefaultContext(true)
	ctx.BlogTitle = "Some blog"
	ctx.AddTranslations([]string{"en", "fr"})
	ctx.SetRedirections([]Redirection{{From: "somewhere/else/index.html", To: "/posts/somewhereelse.html"}})

	require.NoError(t, w.WriteConfiguration("new_site/conf.toml", ctx))

	var got Context
	_, err := toml.Decode(readFile(t, fs, "new_site/conf.toml"), &got)
	require.NoError(t, err)
	assert.Equal(t, "Some blog", got.BlogTitle)
	assert.Equal(t, map[string]string{"en": "", "fr": "./fr"}, got.Translations)
	assert.Equal(t, [][2]string{{"somewhere/else/index.html", "/posts/somewhereelse.html"}}, got.Redirections)
	assert.Equal(t, []string{"wp"}, got.Compilers["wordpress"])
	assert.Len(t, got.Posts, 5)
	assert.Equal(t, PostRule{Glob: "posts/*.wp", Dest: "posts", Template: "post.tmpl"}, got.Posts[4])
}
