package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetor-labs/praetor/internal/core/domain"
	"github.com/praetor-labs/praetor/internal/core/ports/driven"
)

func TestNormalise(t *testing.T) {
	body := "Розділ I\r\nЗАГАЛЬНІ ПОЛОЖЕННЯ\r\n\r\n\r\nСтаття 1. Перша\r\nТекст   із   пробілами.\r\n\r\nСтаття 2. Друга\r\nЩе текст достатньої довжини для порога вилучення.\r\n"

	res, err := New().Normalise(context.Background(), &driven.FetchResult{
		Body:     []byte(body),
		MIMEType: "text/plain",
	})
	require.NoError(t, err)

	assert.NotContains(t, res.Text, "\r")
	assert.Contains(t, res.Text, "Текст із пробілами.")
	require.Len(t, res.Anchors, 3)
	assert.Equal(t, "Розділ I / Стаття 2", res.Anchors[2].Ref)
}

func TestNormaliseTooShort(t *testing.T) {
	_, err := New().Normalise(context.Background(), &driven.FetchResult{
		Body: []byte(strings.Repeat("x", 20)),
	})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}
