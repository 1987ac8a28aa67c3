package navigation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		want           int
	}{
		{"advances", 1, 50, 2},
		{"wraps at the end", 50, 50, 1},
		{"single question", 1, 1, 1},
		{"past the end", 60, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.current, tt.total))
		})
	}
}

func TestRandomStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		id := Random(rng, 5)
		require.GreaterOrEqual(t, id, 1)
		require.LessOrEqual(t, id, 5)
		seen[id] = true
	}
	assert.Len(t, seen, 5)
}

func TestGoTo(t *testing.T) {
	id, inputErr := GoTo(" 12 ", 50)
	require.Nil(t, inputErr)
	assert.Equal(t, 12, id)

	tests := []struct {
		input string
		want  string
	}{
		{"", "Please enter a question number"},
		{"   ", "Please enter a question number"},
		{"abc", "Please enter a valid number"},
		{"3.5", "Please enter a valid number"},
		{"75", "Question number must be between 1 and 50"},
		{"0", "Question number must be between 1 and 50"},
		{"-4", "Question number must be between 1 and 50"},
		{"99999999999999999999", "Question number must be between 1 and 50"},
		{"-99999999999999999999", "Question number must be between 1 and 50"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, inputErr := GoTo(tt.input, 50)
			require.NotNil(t, inputErr)
			assert.Equal(t, tt.want, inputErr.Message)
		})
	}
}

func TestViewPath(t *testing.T) {
	view := At(3)
	assert.Equal(t, "/quiz/3", view.Path())
	shown := view.Toggle()
	assert.Equal(t, "/quiz/3?showAnswer=true", shown.Path())
	assert.Equal(t, view, shown.Toggle())

	parsed, ok := ParseURL(shown.Path())
	require.True(t, ok)
	assert.Equal(t, shown, parsed)
}

func TestParseView(t *testing.T) {
	view, ok := ParseView("7", "true")
	require.True(t, ok)
	assert.Equal(t, View{QuestionID: 7, ShowAnswer: true}, view)

	view, ok = ParseView("7", "")
	require.True(t, ok)
	assert.False(t, view.ShowAnswer)

	_, ok = ParseView("seven", "")
	assert.False(t, ok)
	_, ok = ParseView("0", "")
	assert.False(t, ok)

	_, ok = ParseURL("/other/3")
	assert.False(t, ok)
}
