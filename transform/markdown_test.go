package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToMarkdown(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{
			"blocks and inline",
			`<h2>Title</h2><p>Hello <em>world</em> and <strong>bold</strong>.</p><ul><li>one</li><li>two</li></ul>`,
			"## Title\n\nHello *world* and **bold**.\n\n- one\n- two",
		},
		{
			"wordpress paragraphs without p",
			"First para\nline two\n\nSecond <a href=\"http://x\">link</a>",
			"First para line two\n\nSecond [link](http://x)",
		},
		{
			"ordered list",
			`<ol><li>a</li><li>b</li></ol>`,
			"1. a\n2. b",
		},
		{
			"nested list",
			`<ul><li>a<ul><li>b</li></ul></li></ul>`,
			"- a\n  - b",
		},
		{
			"image with title",
			`<img src="a.png" alt="A" title="T" />`,
			`![A](a.png "T")`,
		},
		{
			"code block",
			"<pre><code class=\"language-go\">x := 1\nfmt.Println(x)</code></pre>",
			"```go\nx := 1\nfmt.Println(x)\n```",
		},
		{
			"blockquote",
			`<blockquote><p>Quote</p></blockquote>`,
			"> Quote",
		},
		{
			"line break",
			`a<br>b`,
			"a  \nb",
		},
		{
			"inline code and entities",
			`<p>Use <code>a &amp;&amp; b</code></p>`,
			"Use `a && b`",
		},
		{
			"comments kept",
			`before<!--more-->after`,
			"before<!--more-->after",
		},
		{
			"scripts dropped",
			`<p>x</p><script>alert(1)</script>`,
			"x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToMarkdown(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWordPressToHTML(t *testing.T) {
	got := WordPressToHTML("Hello\n\nWorld\r\nagain\n\n```go\nx := 1\n```")
	assert.Contains(t, got, "<p>Hello</p>")
	assert.Contains(t, got, "<br")
	assert.Contains(t, got, `<code class="language-go">`)
}
