package questions

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Issue captures a validation problem in a question dataset.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports every issue found while validating a dataset.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("question dataset validation failed: %s", strings.Join(parts, "; "))
}

// ConfigurationError reports a dataset that is valid but unusable.
type ConfigurationError struct {
	Reason string
}

func (err *ConfigurationError) Error() string {
	return "question dataset misconfigured: " + err.Reason
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

// Validate checks decoded dataset elements against the question schema.
// It returns the typed questions only when every element is valid.
func Validate(raw []any) ([]Question, error) {
	collector := &issueCollector{}
	validated := make([]Question, 0, len(raw))
	seenIDs := map[int]int{}

	for i, element := range raw {
		prefix := fmt.Sprintf("questions[%d]", i)
		fields, ok := element.(map[string]any)
		if !ok {
			collector.add(prefix, "must be an object")
			continue
		}

		var question Question
		id, ok := validateID(collector, prefix+".id", fields)
		if ok {
			if first, exists := seenIDs[id]; exists {
				collector.add(prefix+".id", fmt.Sprintf("duplicate id %d (first used by questions[%d])", id, first))
			} else {
				seenIDs[id] = i
			}
			question.ID = id
		}

		if prompt, ok := requireString(collector, prefix+".question", fields, "question"); ok {
			if strings.TrimSpace(prompt) == "" {
				collector.add(prefix+".question", "must not be blank")
			}
			question.Question = prompt
		}

		optionKeys := map[string]struct{}{}
		if rawOptions, present := fields["options"]; !present || rawOptions == nil {
			collector.add(prefix+".options", "is required")
		} else if options, isObject := rawOptions.(map[string]any); !isObject {
			collector.add(prefix+".options", "must be an object")
		} else {
			for _, label := range Labels {
				text, ok := requireString(collector, prefix+".options."+label, options, label)
				if !ok {
					continue
				}
				optionKeys[label] = struct{}{}
				setOption(&question.Options, label, text)
			}
		}

		if answer, ok := requireString(collector, prefix+".answer", fields, "answer"); ok {
			normalized := NormalizeLabel(answer)
			if !IsLabel(normalized) {
				collector.add(prefix+".answer", fmt.Sprintf("unknown option %q", answer))
			} else if _, present := optionKeys[normalized]; !present && len(optionKeys) > 0 {
				collector.add(prefix+".answer", fmt.Sprintf("option %q is missing", answer))
			}
			question.Answer = normalized
		}

		validated = append(validated, question)
	}

	if err := collector.result(); err != nil {
		return nil, err
	}
	return validated, nil
}

func requireString(collector *issueCollector, field string, fields map[string]any, key string) (string, bool) {
	value, present := fields[key]
	if !present || value == nil {
		collector.add(field, "is required")
		return "", false
	}
	text, ok := value.(string)
	if !ok {
		collector.add(field, fmt.Sprintf("must be a string, got %s", typeName(value)))
		return "", false
	}
	return text, true
}

func validateID(collector *issueCollector, field string, fields map[string]any) (int, bool) {
	value, present := fields["id"]
	if !present || value == nil {
		collector.add(field, "is required")
		return 0, false
	}
	id, ok := asInteger(value)
	if !ok {
		collector.add(field, fmt.Sprintf("must be an integer, got %s", typeName(value)))
		return 0, false
	}
	if id <= 0 {
		collector.add(field, fmt.Sprintf("must be positive, got %d", id))
		return 0, false
	}
	return id, true
}

// maxExactFloat is the largest magnitude at which every integer is a float64.
const maxExactFloat = 1 << 53

// asInteger accepts the numeric shapes produced by the JSON and YAML decoders.
func asInteger(value any) (int, bool) {
	switch number := value.(type) {
	case int:
		return number, true
	case int64:
		return int(number), true
	case uint64:
		if number > math.MaxInt32 {
			return 0, false
		}
		return int(number), true
	case float64:
		return integralFloat(number)
	case json.Number:
		if parsed, err := number.Int64(); err == nil {
			return int(parsed), true
		}
		parsed, err := number.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(parsed)
	}
	return 0, false
}

// integralFloat accepts numbers like 1.0 or 1e2 that denote an integer.
func integralFloat(number float64) (int, bool) {
	if number != math.Trunc(number) || math.IsInf(number, 0) || math.Abs(number) > maxExactFloat {
		return 0, false
	}
	return int(number), true
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case json.Number, int, int64, uint64, float64:
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

func setOption(options *Options, label, text string) {
	switch label {
	case "a":
		options.A = text
	case "b":
		options.B = text
	case "c":
		options.C = text
	case "d":
		options.D = text
	}
}
