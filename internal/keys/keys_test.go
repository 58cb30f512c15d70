package keys

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Fix login crash", "fix-login-crash"},
		{"mixed case", "Fix LOGIN Crash", "fix-login-crash"},
		{"punctuation stripped", "Fix: login (crash)!", "fix-login-crash"},
		{"collapse whitespace", "  Fix   login \t crash  ", "fix-login-crash"},
		{"digits kept", "Upgrade to v2 API", "upgrade-to-v2-api"},
		{"empty", "", ""},
		{"whitespace only", "   \t  ", ""},
		{"symbols only", "!!! ???", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Slugify(tc.title))
		})
	}
}

func TestSlugifyBounded(t *testing.T) {
	long := strings.Repeat("word ", 30)
	slug := Slugify(long)
	require.LessOrEqual(t, len(slug), 50)
	require.False(t, strings.HasSuffix(slug, "-"))
}

func TestSlugifyBoundedMultibyte(t *testing.T) {
	// 18 рун по 3 байта: 54 байта, лимит режет посреди руны.
	slug := Slugify(strings.Repeat("日本語", 6))
	require.True(t, utf8.ValidString(slug))
	require.LessOrEqual(t, len(slug), 50)
	require.Equal(t, strings.Repeat("日本語", 5)+"日", slug)

	mixed := Slugify("Résumé update " + strings.Repeat("é", 40))
	require.True(t, utf8.ValidString(mixed))
	require.LessOrEqual(t, len(mixed), 50)
	require.False(t, strings.HasSuffix(mixed, "-"))
}

func TestSuffixFor(t *testing.T) {
	conv := map[string]string{"BUG": "BUG", "FEATURE": "FEAT"}

	require.Equal(t, "FEAT", SuffixFor(conv, "FEATURE"))
	require.Equal(t, "FEAT", SuffixFor(conv, "feature"))
	// Нет конвенции - суффиксом становится сам тег типа.
	require.Equal(t, "CHORE", SuffixFor(conv, "chore"))
	require.Equal(t, "CHORE", SuffixFor(nil, "CHORE"))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "BUG-7-fix-login-crash", Format("BUG", 7, "Fix login crash"))
	// Идемпотентность: одинаковые входы дают одинаковый ключ.
	require.Equal(t, Format("BUG", 7, "Fix login crash"), Format("BUG", 7, "Fix login crash"))
	// Пустой заголовок даёт пустой slug-хвост.
	require.Equal(t, "FEAT-12-", Format("FEAT", 12, "   "))
}
