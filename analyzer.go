// ═══════════════════════════════════════════════════════════════════════════════
// TEXT ANALYSIS OVERVIEW
// ═══════════════════════════════════════════════════════════════════════════════
// Text analysis transforms raw text into searchable tokens through a multi-stage
// pipeline. This process is crucial for effective full-text search.
//
// ANALYSIS PIPELINE:
// ------------------
//  1. Tokenization   → Split text into words
//  2. Lowercasing    → Normalize case ("Quick" → "quick")
//  3. Stop word removal → Remove common words ("the", "a", etc.)
//  4. Length filtering  → Remove very short tokens (< 2 chars)
//
// EXAMPLE TRANSFORMATION:
// -----------------------
// Input:  "The Quick Brown Fox Jumps!"
// Step 1: ["The", "Quick", "Brown", "Fox", "Jumps"]     (tokenize)
// Step 2: ["the", "quick", "brown", "fox", "jumps"]     (lowercase)
// Step 3: ["quick", "brown", "fox", "jumps"]            (remove stopwords)
// Step 4: ["quick", "brown", "fox", "jumps"]            (length filter - all pass)
//
// WHY THIS MATTERS:
// -----------------
// Proper analysis ensures:
// - "The dog" matches "DOG" (case insensitive)
// - Common words don't pollute the index
// - Search results are relevant and accurate
//
// NO STEMMING:
// ------------
// Unlike many full-text engines, this pipeline never reduces a word to its
// root form ("running" stays "running", it never becomes "run"). Terms are
// matched exactly as tokenized. This keeps the same analyzer applicable, byte
// for byte, to both indexed documents and query text - a query term and an
// indexed term are comparable without a second normalization step.
// ═══════════════════════════════════════════════════════════════════════════════

package blaze

import (
	"strings"
	"unicode"
)

// AnalyzerConfig holds configuration options for text analysis
//
// This allows customization of the analysis pipeline without modifying code.
type AnalyzerConfig struct {
	MinTokenLength  int  // Minimum token length to keep (default: 2)
	EnableStopwords bool // Whether to remove stopwords (default: true)
}

// DefaultConfig returns the standard analyzer configuration
func DefaultConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MinTokenLength:  2,
		EnableStopwords: true,
	}
}

// Analyze transforms raw text into searchable tokens using the default pipeline
//
// This is the main entry point for text analysis. It applies all filters in sequence:
// 1. Tokenization
// 2. Lowercasing
// 3. Stopword filtering
// 4. Length filtering
//
// Example:
//
//	tokens := Analyze("The quick brown fox jumps over the lazy dog")
//	// Returns: ["quick", "brown", "fox", "jumps", "over", "lazy", "dog"]
func Analyze(text string) []string {
	return AnalyzeWithConfig(text, DefaultConfig())
}

// AnalyzeWithConfig transforms text using a custom configuration
//
// This allows fine-grained control over the analysis pipeline.
//
// Example:
//
//	config := AnalyzerConfig{MinTokenLength: 3, EnableStopwords: false}
//	tokens := AnalyzeWithConfig("The quick brown fox", config)
func AnalyzeWithConfig(text string, config AnalyzerConfig) []string {
	tokens := tokenize(text)
	tokens = lowercaseFilter(tokens)

	if config.EnableStopwords {
		tokens = stopwordFilter(tokens)
	}

	tokens = lengthFilter(tokens, config.MinTokenLength)

	return tokens
}

// tokenize splits text into individual words
//
// ALGORITHM:
// ----------
// Uses Unicode-aware splitting: any non-letter and non-digit character is a delimiter.
// Apostrophes and hyphens are treated as delimiters too, so "don't" and
// "well-known" split into their component words - this is the same boundary
// every caller (document indexing and query tokenization alike) observes, so
// a term typed in a query and a term emitted while indexing are directly
// comparable.
//
// Examples:
//
//	"hello-world"      → ["hello", "world"]
//	"user@email.com"   → ["user", "email", "com"]
//	"price: $9.99"     → ["price", "9", "99"]
//	"café"             → ["café"]  (Unicode letters preserved)
//
// Why FieldsFunc?
// - Handles Unicode properly (unlike simple string splitting)
// - Treats multiple delimiters as one (no empty tokens)
// - Fast and memory efficient (Go standard library optimization)
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		// Split on any character that is not a letter or a number
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// lowercaseFilter normalizes token casing
//
// WHY IT MATTERS:
// ---------------
// Without lowercasing, "Quick", "quick", and "QUICK" would be treated as
// different words, creating a poor search experience.
//
// Example:
//
//	["Hello", "World"] → ["hello", "world"]
func lowercaseFilter(tokens []string) []string {
	r := make([]string, len(tokens))
	for i, token := range tokens {
		r[i] = strings.ToLower(token)
	}
	return r
}

// stopwordFilter removes common English words that don't add search value
//
// Example:
//
//	["the", "quick", "brown", "fox"] → ["quick", "brown", "fox"]
//
// Implementation Note:
// - Uses map lookup for O(1) checking
// - Pre-allocates capacity to reduce reallocations
func stopwordFilter(tokens []string) []string {
	r := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isStopword(token) {
			r = append(r, token)
		}
	}
	return r
}

// lengthFilter removes tokens that are too short to be meaningful
//
// Example (minLength=2):
//
//	["a", "go", "cat", "i"] → ["go", "cat"]
func lengthFilter(tokens []string, minLength int) []string {
	r := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) >= minLength {
			r = append(r, token)
		}
	}
	return r
}

// isStopword checks if a token is a common English stopword
//
// Uses a hash map for O(1) lookup performance. The map uses struct{} as
// values (0 bytes) instead of bool (1 byte) for memory efficiency.
func isStopword(token string) bool {
	_, exists := englishStopwords[strings.ToLower(token)]
	return exists
}

// englishStopwords is the closed stopword list shared by document indexing
// and query tokenization (see QueryLexer.FilterStopwords). Keeping a single
// list guarantees a query term survives analysis iff the same word would
// have survived when the document was indexed.
var englishStopwords = map[string]struct{}{
	"a":     {},
	"an":    {},
	"the":   {},
	"and":   {},
	"or":    {},
	"but":   {},
	"if":    {},
	"then":  {},
	"else":  {},
	"of":    {},
	"in":    {},
	"on":    {},
	"at":    {},
	"by":    {},
	"for":   {},
	"with":  {},
	"to":    {},
	"from":  {},
	"is":    {},
	"are":   {},
	"was":   {},
	"were":  {},
	"be":    {},
	"been":  {},
	"being": {},
	"as":    {},
	"that":  {},
	"this":  {},
	"these": {},
	"those": {},
	"he":    {},
	"she":   {},
	"it":    {},
	"they":  {},
	"we":    {},
	"you":   {},
	"i":     {},
	"me":    {},
	"my":    {},
	"your":  {},
	"our":   {},
	"their": {},
}
