package questions

import "strings"

// Labels lists the option labels every question carries, in display order.
var Labels = []string{"a", "b", "c", "d"}

// Options maps the fixed option labels to their text.
type Options struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
	C string `json:"c" yaml:"c"`
	D string `json:"d" yaml:"d"`
}

// Get returns the option text for a label.
func (o Options) Get(label string) (string, bool) {
	switch NormalizeLabel(label) {
	case "a":
		return o.A, true
	case "b":
		return o.B, true
	case "c":
		return o.C, true
	case "d":
		return o.D, true
	}
	return "", false
}

// Question is one quiz item. Questions are read-only once loaded.
type Question struct {
	ID       int     `json:"id" yaml:"id"`
	Question string  `json:"question" yaml:"question"`
	Options  Options `json:"options" yaml:"options"`
	Answer   string  `json:"answer" yaml:"answer"`
}

// IsCorrect reports whether label names the correct option.
func (q Question) IsCorrect(label string) bool {
	return NormalizeLabel(label) == q.Answer
}

// AnswerText returns the text of the correct option.
func (q Question) AnswerText() string {
	text, _ := q.Options.Get(q.Answer)
	return text
}

// NormalizeLabel trims and lowercases an option label for matching.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// IsLabel reports whether label is one of the known option labels.
func IsLabel(label string) bool {
	normalized := NormalizeLabel(label)
	for _, known := range Labels {
		if known == normalized {
			return true
		}
	}
	return false
}
