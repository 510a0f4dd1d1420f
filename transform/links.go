package transform

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var linkAttrs = map[string]bool{"href": true, "src": true}

// RewriteLinks заменяет значения href и src, найденные в links. Теги без
// замен и весь остальной текст выводятся байт в байт.
func RewriteLinks(content string, links map[string]string) string {
	if len(links) == 0 {
		return content
	}
	var out bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		raw := z.Raw()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				out.Write(raw)
			}
			return out.String()
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}
		// Raw нужно скопировать до Token(): буфер токенизатора переиспользуется.
		original := append([]byte(nil), raw...)
		token := z.Token()
		changed := false
		for i, attr := range token.Attr {
			if !linkAttrs[attr.Key] {
				continue
			}
			if target, ok := links[attr.Val]; ok {
				token.Attr[i].Val = target
				changed = true
			}
		}
		if changed {
			out.WriteString(token.String())
		} else {
			out.Write(original)
		}
	}
}
