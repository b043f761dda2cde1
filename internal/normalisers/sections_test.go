package normalisers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	in := "Перший  рядок\t\tз   пробілами\r\n\r\n\r\n\r\nДругий рядок  \r\n"
	got := CleanText(in)
	assert.Equal(t, "Перший рядок з пробілами\n\nДругий рядок", got)
}

func TestCleanTextDeterministic(t *testing.T) {
	in := "a  b\r\nc\n\n\n\nd"
	once := CleanText(in)
	assert.Equal(t, once, CleanText(once))
}

func TestDetectAnchorsLawStructure(t *testing.T) {
	text := CleanText(`ЗАКОН УКРАЇНИ
Про приклад

Розділ I
ЗАГАЛЬНІ ПОЛОЖЕННЯ

Стаття 1. Визначення термінів
У цьому Законі терміни вживаються в такому значенні.

Стаття 2. Сфера дії
Цей Закон регулює відносини.

Розділ II
ПРИКІНЦЕВІ ПОЛОЖЕННЯ

Стаття 3. Набрання чинності
Цей Закон набирає чинності.`)

	anchors := DetectAnchors(text)
	require.Len(t, anchors, 5)

	assert.Equal(t, "Розділ I", anchors[0].Ref)
	assert.Equal(t, "Розділ I ЗАГАЛЬНІ ПОЛОЖЕННЯ", anchors[0].Title)
	assert.Equal(t, "Розділ I / Стаття 1", anchors[1].Ref)
	assert.Equal(t, "Розділ I / Стаття 2", anchors[2].Ref)
	assert.Equal(t, "Розділ II", anchors[3].Ref)
	assert.Equal(t, "Розділ II / Стаття 3", anchors[4].Ref)

	for i := 1; i < len(anchors); i++ {
		assert.Greater(t, anchors[i].Offset, anchors[i-1].Offset)
	}
}

func TestDetectAnchorsChapters(t *testing.T) {
	text := CleanText(`Розділ I
Глава 2

Стаття 5. Перша
Текст.

Стаття 6. Друга
Текст.`)

	anchors := DetectAnchors(text)
	require.Len(t, anchors, 4)
	assert.Equal(t, "Розділ I / Глава 2 / Стаття 5", anchors[2].Ref)
	assert.Equal(t, "Розділ I / Глава 2 / Стаття 6", anchors[3].Ref)
}

func TestDetectAnchorsSingleArticleIgnored(t *testing.T) {
	// One article mention is a quotation, not structure.
	text := "Як зазначено у джерелі:\nСтаття 43. Кожен має право на працю.\nДалі йде коментар без структури."
	assert.Empty(t, DetectAnchors(text))
}

func TestDetectAnchorsNumberedPoints(t *testing.T) {
	text := CleanText(`ПОСТАНОВА

1. Затвердити порядок.
2. Установити строк.
3. Контроль покласти на міністра.`)

	anchors := DetectAnchors(text)
	require.Len(t, anchors, 3)
	assert.Equal(t, "Пункт 1", anchors[0].Ref)
	assert.Equal(t, "Пункт 3", anchors[2].Ref)
}

func TestDetectAnchorsUnstructured(t *testing.T) {
	assert.Empty(t, DetectAnchors("Звичайний текст без жодної юридичної структури.\nЩе один абзац."))
}
