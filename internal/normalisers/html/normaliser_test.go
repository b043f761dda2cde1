package html

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

func normalise(t *testing.T, body string) (*driven.NormaliseResult, error) {
	t.Helper()
	return New().Normalise(context.Background(), &driven.FetchResult{
		Body:     []byte(body),
		MIMEType: "text/html",
		FinalURL: "https://example.test/doc",
	})
}

func TestNormaliseStripsMarkup(t *testing.T) {
	page := `<!DOCTYPE html>
<html><head><title>Вікно браузера</title><style>body{color:red}</style></head>
<body>
<script>trackVisitors();</script>
<h1>Закон України про приклад</h1>
<p>Перший абзац нормативного тексту, достатньо довгий для збереження.</p>
<p>Другий абзац &mdash; з &quot;сутностями&quot; та додатковим текстом для обсягу.</p>
</body></html>`

	res, err := normalise(t, page)
	require.NoError(t, err)

	assert.Equal(t, "Закон України про приклад", res.Title)
	assert.NotContains(t, res.Text, "<")
	assert.NotContains(t, res.Text, "trackVisitors")
	assert.NotContains(t, res.Text, "color:red")
	assert.Contains(t, res.Text, "Перший абзац")
	assert.Contains(t, res.Text, `з "сутностями"`)
}

func TestNormaliseTitleFallsBackToTitleTag(t *testing.T) {
	page := `<html><head><title>Про приклад | Офіційний портал</title></head><body><p>` +
		strings.Repeat("Текст нормативного акта. ", 10) + `</p></body></html>`

	res, err := normalise(t, page)
	require.NoError(t, err)
	assert.Equal(t, "Про приклад | Офіційний портал", res.Title)
}

func TestNormaliseDropsPrintChrome(t *testing.T) {
	page := `<html><body>
<div>Друкувати</div>
<div>Допомога</div>
<div>Шрифт: збільшити Ctrl+</div>
<h1>Закон</h1>
<p>ЗАКОН УКРАЇНИ</p>
<p>Стаття 1. Перша стаття з достатньою кількістю тексту для порога.</p>
<p>Стаття 2. Друга стаття, теж із достатньою кількістю тексту.</p>
</body></html>`

	res, err := normalise(t, page)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Text, "ЗАКОН УКРАЇНИ"), "text should start at the act header, got: %q", res.Text[:40])
	assert.NotContains(t, res.Text, "Друкувати")
	assert.NotContains(t, res.Text, "Ctrl")
	require.Len(t, res.Anchors, 2)
	assert.Equal(t, "Стаття 1", res.Anchors[0].Ref)
}

func TestNormaliseTooShort(t *testing.T) {
	_, err := normalise(t, "<html><body><p>коротко</p></body></html>")
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestNormaliseNilInput(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
