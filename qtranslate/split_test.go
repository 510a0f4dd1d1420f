package qtranslate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func legacySeparate(t *testing.T, text string) *Translations {
	t.Helper()
	modern, err := NormalizeText([]byte(text))
	require.NoError(t, err)
	return Split(modern)
}

func TestSplitTwoLanguagePost(t *testing.T) {
	tests := []struct {
		name    string
		content string
		fr, en  string
	}{
		{"simple", "[:fr]Voila voila[:en]BLA[:]", "Voila voila", "BLA"},
		{"pre modern with intermission", "[:fr]Voila voila[:]COMMON[:en]BLA[:]", "Voila voila COMMON", "COMMON BLA"},
		{"with intermission", "<!--:fr-->Voila voila<!--:-->COMMON<!--:en-->BLA<!--:-->", "Voila voila COMMON", "COMMON BLA"},
		{"with uneven repartition", "<!--:fr-->Voila voila<!--:-->COMMON<!--:fr-->MOUF<!--:--><!--:en-->BLA<!--:-->", "Voila voila COMMON MOUF", "COMMON BLA"},
		{"with uneven repartition bis", "<!--:fr-->Voila voila<!--:--><!--:en-->BLA<!--:-->COMMON<!--:fr-->MOUF<!--:-->", "Voila voila COMMON MOUF", "BLA COMMON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := legacySeparate(t, tt.content)
			fr, ok := tr.Get("fr")
			require.True(t, ok)
			en, ok := tr.Get("en")
			require.True(t, ok)
			assert.Equal(t, tt.fr, fr)
			assert.Equal(t, tt.en, en)
			assert.Equal(t, 2, tr.Len())
		})
	}
}

func TestSplitKeepsFirstAppearanceOrder(t *testing.T) {
	tr := Split("[:en]a[:][:fr]b[:][:de]c[:][:en]d[:]")
	assert.Equal(t, []string{"en", "fr", "de"}, tr.Langs())
	assert.True(t, tr.Tagged())
}

func TestConservesQtranslateLessPost(t *testing.T) {
	content := `Si vous préférez savoir à qui vous parlez commencez par visiter l'<a title="À propos" href="http://some.blog/about/">À propos</a>.

Quoiqu'il en soit, commentaires, questions et suggestions sont les bienvenues !`
	tr := legacySeparate(t, content)
	require.Equal(t, 1, tr.Len())
	got, ok := tr.Get("")
	require.True(t, ok)
	assert.Equal(t, content, got)
	assert.False(t, tr.Tagged())
}

func TestSplitIdentityOnUntaggedInput(t *testing.T) {
	for _, in := range []string{"", "   ", "[:] only a close tag", "[: not a tag]", "<!--:fr-->legacy is not canonical"} {
		tr := Split(in)
		assert.Equal(t, map[string]string{"": in}, tr.Map(), in)
	}
}

func TestSplitTwoLanguagePostFull(t *testing.T) {
	content := `<!--:fr-->Si vous préférez savoir à qui vous parlez commencez par visiter l'<a title="À propos" href="http://some.blog/about/">À propos</a>.

Quoiqu'il en soit, commentaires, questions et suggestions sont les bienvenues !
<!--:--><!--:en-->If you'd like to know who you're talking to, please visit the <a title="À propos" href="http://some.blog/about/">about page</a>.

Comments, questions and suggestions are welcome !
<!--:-->`
	tr := legacySeparate(t, content)

	fr, _ := tr.Get("fr")
	assert.Equal(t, `Si vous préférez savoir à qui vous parlez commencez par visiter l'<a title="À propos" href="http://some.blog/about/">À propos</a>.

Quoiqu'il en soit, commentaires, questions et suggestions sont les bienvenues !
`, fr)
	en, _ := tr.Get("en")
	assert.Equal(t, `If you'd like to know who you're talking to, please visit the <a title="À propos" href="http://some.blog/about/">about page</a>.

Comments, questions and suggestions are welcome !
`, en)
}

func TestSplitTwoLanguagePostWithTeaser(t *testing.T) {
	content := `<!--:fr-->Si vous préférez savoir à qui vous parlez commencez par visiter l'<a title="À propos" href="http://some.blog/about/">À propos</a>.

Quoiqu'il en soit, commentaires, questions et suggestions sont les bienvenues !
<!--:--><!--:en-->If you'd like to know who you're talking to, please visit the <a title="À propos" href="http://some.blog/about/">about page</a>.

Comments, questions and suggestions are welcome !
<!--:--><!--more--><!--:fr-->
Plus de détails ici !
<!--:--><!--:en-->
More details here !
<!--:-->`
	tr := legacySeparate(t, content)

	fr, _ := tr.Get("fr")
	assert.Equal(t, "Si vous préférez savoir à qui vous parlez commencez par visiter l'<a title=\"À propos\" href=\"http://some.blog/about/\">À propos</a>.\n\n"+
		"Quoiqu'il en soit, commentaires, questions et suggestions sont les bienvenues !\n"+
		" "+TeaserMarker+" \n"+
		"Plus de détails ici !\n", fr)
	en, _ := tr.Get("en")
	assert.Equal(t, "If you'd like to know who you're talking to, please visit the <a title=\"À propos\" href=\"http://some.blog/about/\">about page</a>.\n\n"+
		"Comments, questions and suggestions are welcome !\n"+
		" "+TeaserMarker+" \n"+
		"More details here !\n", en)
}

func TestSplitUnbalancedTags(t *testing.T) {
	t.Run("open tag never closed", func(t *testing.T) {
		tr := Split("COMMON[:fr]début[:en]start")
		assert.Equal(t, map[string]string{"fr": "COMMON début", "en": "COMMON start"}, tr.Map())
	})
	t.Run("close without open", func(t *testing.T) {
		tr := Split("[:]avant[:fr]x[:][:]après")
		assert.Equal(t, map[string]string{"fr": "avant x après"}, tr.Map())
	})
	t.Run("empty tagged span still registers the language", func(t *testing.T) {
		tr := Split("[:fr][:][:en]text[:]")
		assert.Equal(t, []string{"fr", "en"}, tr.Langs())
		fr, _ := tr.Get("fr")
		assert.Equal(t, "", fr)
	})
	t.Run("newline between blocks is common text", func(t *testing.T) {
		tr := Split("[:fr]a[:]\n[:en]b[:]")
		assert.Equal(t, map[string]string{"fr": "a \n", "en": "\n b"}, tr.Map())
	})
	t.Run("trailing newline goes to every language", func(t *testing.T) {
		tr := Split("[:fr]a[:][:en]b[:]\n")
		assert.Equal(t, map[string]string{"fr": "a \n", "en": "b \n"}, tr.Map())
	})
	t.Run("leading whitespace is dropped", func(t *testing.T) {
		tr := Split("\n  [:fr]a[:][:en]b[:]")
		assert.Equal(t, map[string]string{"fr": "a", "en": "b"}, tr.Map())
	})
	t.Run("whitespace after a stray close tag is common text", func(t *testing.T) {
		tr := Split("[:] [:fr]a[:]")
		assert.Equal(t, map[string]string{"fr": "  a"}, tr.Map())
	})
}

func TestSplitDistinctLanguageCount(t *testing.T) {
	inputs := map[string]int{
		"<!--:fr-->a<!--:--><!--:en-->b<!--:--><!--:fr-->c<!--:-->": 2,
		"{:de}a{:}{:en}b{:}{:it}c{:}":                               3,
		"<!--en-->a<!--/en-->":                                      1,
		"no tags at all":                                            1,
	}
	for in, want := range inputs {
		assert.Equal(t, want, Split(string(Normalize([]byte(in)))).Len(), in)
	}
}

func TestHasTags(t *testing.T) {
	assert.True(t, HasTags("x [:en]y"))
	assert.False(t, HasTags("x [:]y"))
	assert.False(t, HasTags("<!--:en-->y"))
	assert.False(t, HasTags(""))
}
