// Package platematch содержит нормализацию госномеров и функцию
// похожести, на которой построено ранжирование кандидатов при
// нечетком распознавании
package platematch

import "strings"

// separatorSet - символы-разделители, которые камеры и операторы
// вставляют в номер произвольно
const separatorSet = " +-._"

// Normalize приводит номер к каноническому виду: верхний регистр,
// без пробелов и разделителей. Идемпотентна: Normalize(Normalize(p)) == Normalize(p)
func Normalize(plate string) string {
	var b strings.Builder
	b.Grow(len(plate))
	for _, r := range strings.ToUpper(plate) {
		if strings.ContainsRune(separatorSet, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Similarity возвращает оценку похожести двух номеров 0-100.
// Алгоритм: расстояние Левенштейна, нормированное на длину большего
// номера: 100 * (1 - dist/maxLen). Оба аргумента предварительно
// нормализуются, поэтому регистр и разделители не влияют на оценку
func Similarity(a, b string) int {
	a = Normalize(a)
	b = Normalize(b)

	if a == b {
		return 100
	}
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	dist := levenshtein(a, b)
	score := 100 - (100*dist+maxLen-1)/maxLen // округление вверх: чужие номера не получают 100
	if score < 0 {
		return 0
	}
	return score
}

// levenshtein вычисляет редакционное расстояние по байтам
// (номера после нормализации состоят из ASCII-букв и цифр либо
// кириллицы, где побайтовое сравнение дает согласованные оценки)
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
