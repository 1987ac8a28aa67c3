package navigation

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ShowAnswerParam is the query parameter that deep-links into a revealed answer.
const ShowAnswerParam = "showAnswer"

// View is the navigable state of the quiz page.
type View struct {
	QuestionID int  `json:"questionId"`
	ShowAnswer bool `json:"showAnswer"`
}

// At returns the view of id with the answer hidden.
func At(id int) View {
	return View{QuestionID: id}
}

// Toggle flips answer visibility.
func (v View) Toggle() View {
	v.ShowAnswer = !v.ShowAnswer
	return v
}

// Path renders the view as a shareable URL path.
func (v View) Path() string {
	path := fmt.Sprintf("/quiz/%d", v.QuestionID)
	if v.ShowAnswer {
		path += "?" + ShowAnswerParam + "=true"
	}
	return path
}

// ParseView reads a view from a route segment and the showAnswer query value.
// A segment that is not a positive integer yields ok=false.
func ParseView(segment, showAnswer string) (View, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(segment))
	if err != nil || id < 1 {
		return View{}, false
	}
	show, _ := strconv.ParseBool(showAnswer)
	return View{QuestionID: id, ShowAnswer: show}, true
}

// ParseURL reads a view from a path such as /quiz/3?showAnswer=true.
func ParseURL(raw string) (View, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return View{}, false
	}
	segment, found := strings.CutPrefix(u.Path, "/quiz/")
	if !found || strings.Contains(segment, "/") {
		return View{}, false
	}
	return ParseView(segment, u.Query().Get(ShowAnswerParam))
}
