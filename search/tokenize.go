package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/newssync/models"
)

// nonToken strips everything that is not a word character, whitespace or
// Hangul. Korean text tokenizes by whitespace like Latin text does.
var nonToken = regexp.MustCompile(`[^\w\s가-힣]`)

// Tokenize lowercases, strips punctuation and splits on whitespace.
// Single-rune tokens are dropped as noise.
func Tokenize(s string) []string {
	cleaned := nonToken.ReplaceAllString(strings.ToLower(s), " ")
	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// recordTokens flattens a record's searchable text into one token stream.
func recordTokens(rec models.NewsRecord) []string {
	var b strings.Builder
	b.WriteString(rec.Title)
	b.WriteByte(' ')
	b.WriteString(rec.Summary)
	b.WriteByte(' ')
	b.WriteString(rec.Content)
	for _, kw := range rec.Keywords {
		b.WriteByte(' ')
		b.WriteString(kw)
	}
	return Tokenize(b.String())
}

func recordTokenSet(rec models.NewsRecord) map[string]int {
	set := make(map[string]int)
	for _, tok := range recordTokens(rec) {
		set[tok]++
	}
	return set
}

// sourceAuthorities are static editorial trust weights. Unknown sources
// land on the neutral 0.5.
var sourceAuthorities = map[string]float64{
	"reuters":            0.95,
	"bbc":                0.93,
	"bbc news":           0.93,
	"associated press":   0.92,
	"ap":                 0.92,
	"bloomberg":          0.90,
	"the new york times": 0.88,
	"the guardian":       0.86,
	"cnn":                0.82,
	"fox news":           0.75,
}

func sourceAuthority(source string) float64 {
	if v, ok := sourceAuthorities[strings.ToLower(strings.TrimSpace(source))]; ok {
		return v
	}
	return 0.5
}
