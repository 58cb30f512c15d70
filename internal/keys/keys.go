// Package keys строит человекочитаемые ключи тикетов вида "SUFFIX-<n>-<slug>".
// Все функции чистые: их использует и реальное создание тикета, и preview
// следующего ключа без аллокации.
package keys

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxSlugLen ограничивает длину slug-части ключа.
const maxSlugLen = 50

// Slugify приводит заголовок к slug: нижний регистр, только буквы/цифры и
// пробелы, пробелы схлопываются в дефисы, результат обрезается до 50 символов.
// Пустой или пробельный заголовок даёт пустой slug.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	slug := strings.Join(strings.Fields(b.String()), "-")
	if len(slug) > maxSlugLen {
		// Обрезаем по границе руны: многобайтные заголовки не должны давать
		// битый UTF-8 в неизменяемом ключе.
		cut := maxSlugLen
		for cut > 0 && !utf8.RuneStart(slug[cut]) {
			cut--
		}
		slug = strings.TrimRight(slug[:cut], "-")
	}
	return slug
}

// SuffixFor резолвит суффикс ключа для типа тикета по таблице конвенций
// проекта; при отсутствии записи суффиксом становится сам тег типа.
func SuffixFor(conventions map[string]string, ticketType string) string {
	typ := strings.ToUpper(strings.TrimSpace(ticketType))
	if s, ok := conventions[typ]; ok && s != "" {
		return s
	}
	return typ
}

// Format собирает итоговый ключ "<suffix>-<sequence>-<slug>". Детерминирован
// и идемпотентен для одинаковых входов; ключ назначается один раз при
// создании и никогда не пересчитывается.
func Format(suffix string, sequence int64, title string) string {
	return fmt.Sprintf("%s-%d-%s", suffix, sequence, Slugify(title))
}
