package adapt

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Lexicon holds the polarity word lists used for sentiment scoring.
// Entries are matched after NFC normalization and lowercasing.
type Lexicon struct {
	Positive []string
	Negative []string
}

var englishLexicon = Lexicon{
	Positive: []string{"happy", "glad", "great", "excellent", "good", "wonderful", "love", "amazing", "joy", "nice"},
	Negative: []string{"sad", "upset", "angry", "terrible", "bad", "worse", "awful", "hate", "horrible", "sorry"},
}

var spanishLexicon = Lexicon{
	Positive: []string{"feliz", "alegre", "contento", "genial", "excelente", "bueno", "maravilloso", "encanta"},
	Negative: []string{"triste", "molesto", "enojado", "terrible", "malo", "peor", "horrible", "odio"},
}

// DefaultLexicon merges the English and Spanish word lists
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: append(append([]string{}, englishLexicon.Positive...), spanishLexicon.Positive...),
		Negative: append(append([]string{}, englishLexicon.Negative...), spanishLexicon.Negative...),
	}
}

type sentimentScorer struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

func newSentimentScorer(lex Lexicon) *sentimentScorer {
	s := &sentimentScorer{
		positive: make(map[string]struct{}, len(lex.Positive)),
		negative: make(map[string]struct{}, len(lex.Negative)),
	}
	for _, w := range lex.Positive {
		s.positive[normalizeWord(w)] = struct{}{}
	}
	for _, w := range lex.Negative {
		s.negative[normalizeWord(w)] = struct{}{}
	}
	return s
}

func normalizeWord(w string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(w)))
}

// tokenize splits text into lowercase words of letters and digits
func tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})
}

// Score returns a value in [-1, 1]. The polarity with more matches wins and
// the magnitude is its match count over the total word count; a tie is 0.
func (s *sentimentScorer) Score(text string) float64 {
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	pos, neg := 0, 0
	for _, w := range words {
		if _, ok := s.positive[w]; ok {
			pos++
		}
		if _, ok := s.negative[w]; ok {
			neg++
		}
	}

	switch {
	case pos > neg:
		return float64(pos) / float64(len(words))
	case neg > pos:
		return -float64(neg) / float64(len(words))
	default:
		return 0
	}
}
