package questions

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestion(id any) map[string]any {
	return map[string]any{
		"id":       id,
		"question": "Which grain is used for risotto?",
		"options": map[string]any{
			"a": "Basmati",
			"b": "Arborio",
			"c": "Barley",
			"d": "Quinoa",
		},
		"answer": "b",
	}
}

func TestValidateAcceptsWellFormedQuestions(t *testing.T) {
	validated, err := Validate([]any{validQuestion(1), validQuestion(2)})
	require.NoError(t, err)
	require.Len(t, validated, 2)

	assert.Equal(t, 1, validated[0].ID)
	assert.Equal(t, "Arborio", validated[0].Options.B)
	assert.Equal(t, "b", validated[0].Answer)
	assert.Equal(t, "Arborio", validated[0].AnswerText())
}

func TestValidateNormalizesAnswerLabel(t *testing.T) {
	q := validQuestion(1)
	q["answer"] = " B "
	validated, err := Validate([]any{q})
	require.NoError(t, err)
	assert.Equal(t, "b", validated[0].Answer)
	assert.True(t, validated[0].IsCorrect("B"))
}

func TestValidateCollectsEveryIssue(t *testing.T) {
	missingPrompt := validQuestion(2)
	delete(missingPrompt, "question")

	wrongType := validQuestion("3")

	badAnswer := validQuestion(4)
	badAnswer["answer"] = "e"

	missingOption := validQuestion(5)
	delete(missingOption["options"].(map[string]any), "d")

	_, err := Validate([]any{validQuestion(1), missingPrompt, wrongType, badAnswer, missingOption, "nope"})
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}
	assert.Equal(t, []string{
		"questions[1].question",
		"questions[2].id",
		"questions[3].answer",
		"questions[4].options.d",
		"questions[5]",
	}, fields)
	assert.True(t, strings.HasPrefix(err.Error(), "question dataset validation failed: "))
}

func TestValidateRejectsDuplicateAndNonPositiveIDs(t *testing.T) {
	_, err := Validate([]any{validQuestion(1), validQuestion(1), validQuestion(0), validQuestion(1.5)})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Issues, 3)
	assert.Contains(t, validationErr.Issues[0].Message, "duplicate id 1")
	assert.Contains(t, validationErr.Issues[1].Message, "must be positive")
	assert.Contains(t, validationErr.Issues[2].Message, "must be an integer")
}

func TestValidateRejectsBlankPrompt(t *testing.T) {
	q := validQuestion(1)
	q["question"] = "   "
	_, err := Validate([]any{q})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "questions[0].question", validationErr.Issues[0].Field)
}

func TestValidateAllowsEmptyCollection(t *testing.T) {
	validated, err := Validate([]any{})
	require.NoError(t, err)
	assert.Empty(t, validated)
}

func TestParseAcceptsIntegralNumberForms(t *testing.T) {
	data := `[
  {"id": 1.0, "question": "Q1", "options": {"a": "A", "b": "B", "c": "C", "d": "D"}, "answer": "a"},
  {"id": 1e2, "question": "Q2", "options": {"a": "A", "b": "B", "c": "C", "d": "D"}, "answer": "b"}
]`
	validated, err := Parse([]byte(data), FormatJSON)
	require.NoError(t, err)
	require.Len(t, validated, 2)
	assert.Equal(t, 1, validated[0].ID)
	assert.Equal(t, 100, validated[1].ID)
}

func TestParseRejectsFractionalID(t *testing.T) {
	data := `[{"id": 1.5, "question": "Q1", "options": {"a": "A", "b": "B", "c": "C", "d": "D"}, "answer": "a"}]`
	_, err := Parse([]byte(data), FormatJSON)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Error(), "questions[0].id: must be an integer, got number")
}
