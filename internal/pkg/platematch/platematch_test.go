package platematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"нижний регистр", "a123bc77", "A123BC77"},
		{"пробелы и плюс", "A123 BC+77", "A123BC77"},
		{"дефисы и точки", "a-123.bc 77", "A123BC77"},
		{"уже нормализован", "A123BC77", "A123BC77"},
		{"пустая строка", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	plates := []string{"A123 BC+77", "x 555 xx-199", "", "В777ОР 99"}
	for _, p := range plates {
		once := Normalize(p)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalize_CaseAndSeparatorInsensitive(t *testing.T) {
	assert.Equal(t, Normalize("a123bc77"), Normalize("A123 BC+77"))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"идентичные номера", "A123BC77", "A123BC77", 100},
		{"различие только в регистре и разделителях", "a123 bc+77", "A123BC77", 100},
		{"один спутанный символ", "A123BC77", "A128BC77", 87},
		{"пустой против непустого", "", "A123BC77", 0},
		{"нет совпадающих позиций", "A123BC77", "X999YZ11", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Similarity(tt.a, tt.b))
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	assert.Equal(t, Similarity("A123BC77", "A128BC77"), Similarity("A128BC77", "A123BC77"))
}

func TestSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"A123BC77", "B"},
		{"AB", "ZZZZZZZZZZZZZZZZ"},
		{"X1", "X2"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, 100)
		assert.NotEqual(t, 100, s, "different plates must not score 100")
	}
}
