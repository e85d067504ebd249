// Package examples holds the sample inputs offered by the CLI and the API.
package examples

import "fmt"

// Category names the kind of defect an example demonstrates.
type Category string

const (
	CategorySpelling       Category = "spelling"
	CategoryGrammar        Category = "grammar"
	CategoryMisquote       Category = "misquote"
	CategoryScrambledQuote Category = "scrambled_quote"
)

// Example is one sample input.
type Example struct {
	Number   int      `json:"number" yaml:"number"`
	Text     string   `json:"text" yaml:"text"`
	Category Category `json:"category" yaml:"category"`
	Note     string   `json:"note,omitempty" yaml:"note,omitempty"`
}

var all = []Example{
	{Number: 1, Text: "correct me my speeking", Category: CategorySpelling, Note: "misspelling in a short phrase"},
	{Number: 2, Text: "She don't likes apples", Category: CategoryGrammar, Note: "grammar only; routed to spell check and left unchanged"},
	{Number: 3, Text: "He go to school yesterday", Category: CategoryGrammar, Note: "tense and agreement"},
	{Number: 4, Text: "The pen is mightier than the pencil", Category: CategoryMisquote, Note: "famous phrase with a wrong word"},
	{Number: 5, Text: "to err is huma to forgiv is hman", Category: CategoryScrambledQuote, Note: "quotation with dropped letters"},
	{Number: 6, Text: "a stich in time saves nien", Category: CategoryScrambledQuote, Note: "proverb with misspellings"},
	{Number: 7, Text: "I havv a speling eror", Category: CategorySpelling, Note: "several misspellings"},
}

// All returns every example, numbered from 1.
func All() []Example {
	out := make([]Example, len(all))
	copy(out, all)
	return out
}

// Get returns example n (1-based).
func Get(n int) (Example, error) {
	if n < 1 || n > len(all) {
		return Example{}, fmt.Errorf("example %d out of range (1-%d)", n, len(all))
	}
	return all[n-1], nil
}
