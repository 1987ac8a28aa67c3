package quiz_server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"meal-quiz/pkg/navigation"
	"meal-quiz/pkg/questions"
	"meal-quiz/pkg/quiz"
	"meal-quiz/pkg/session"
)

const pageTitle = "Meal Quiz"

type indexPage struct {
	Title   string
	Total   int
	Session session.State
}

type optionView struct {
	Label    string
	Text     string
	Revealed bool
}

type questionPage struct {
	Title       string
	Screen      quiz.Screen
	Options     []optionView
	AnswerText  string
	ToggleURL   string
	ToggleLabel string
	GoToInput   string
	GoToError   string
	Outcome     *quiz.Outcome
}

type notFoundPage struct {
	Title     string
	Requested string
}

type errorPage struct {
	Title  string
	Detail string
}

func newQuestionPage(screen quiz.Screen) questionPage {
	page := questionPage{
		Title:       pageTitle,
		Screen:      screen,
		AnswerText:  screen.Question.AnswerText(),
		ToggleURL:   screen.View.Toggle().Path(),
		ToggleLabel: "Show answer",
	}
	if screen.View.ShowAnswer {
		page.ToggleLabel = "Hide answer"
	}
	for _, label := range questions.Labels {
		text, _ := screen.Question.Options.Get(label)
		page.Options = append(page.Options, optionView{
			Label:    label,
			Text:     text,
			Revealed: screen.View.ShowAnswer && label == screen.Question.Answer,
		})
	}
	return page
}

// renderError is the error boundary for page handlers.
func (qs *QuizServer) renderError(c *gin.Context, err error) {
	qs.datasetFailed(c, err)
	page := errorPage{Title: pageTitle}
	if qs.config.Server.Mode == "debug" {
		page.Detail = err.Error()
	}
	c.HTML(http.StatusInternalServerError, "error.html", page)
}

func (qs *QuizServer) renderNotFound(c *gin.Context, requested string) {
	c.HTML(http.StatusNotFound, "notfound.html", notFoundPage{Title: "Question not found", Requested: requested})
}

// renderQuestion loads the screen for ctrl and writes it with status.
func (qs *QuizServer) renderQuestion(c *gin.Context, status int, ctrl *quiz.Controller, decorate func(*questionPage)) {
	screen, err := ctrl.Current(c.Request.Context())
	if err != nil {
		qs.renderError(c, err)
		return
	}
	if !screen.Found {
		qs.renderNotFound(c, c.Param("q"))
		return
	}
	page := newQuestionPage(screen)
	if decorate != nil {
		decorate(&page)
	}
	c.HTML(status, "question.html", page)
}

// pageView parses the :q segment, writing the not-found page when it is not
// a question number.
func (qs *QuizServer) pageView(c *gin.Context) (navigation.View, bool) {
	view, ok := navigation.ParseView(c.Param("q"), c.Query(navigation.ShowAnswerParam))
	if !ok {
		qs.renderNotFound(c, c.Param("q"))
	}
	return view, ok
}

// IndexHandler renders the landing page.
func (qs *QuizServer) IndexHandler(c *gin.Context) {
	ctx := c.Request.Context()
	total, err := qs.questions.GetTotalCount(ctx)
	if err != nil {
		qs.renderError(c, err)
		return
	}
	state, err := qs.SessionManager.For(clientID(c)).State(ctx)
	if err != nil {
		qs.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", indexPage{Title: pageTitle, Total: total, Session: state})
}

// QuestionPageHandler renders /quiz/:q, honouring ?showAnswer=true.
func (qs *QuizServer) QuestionPageHandler(c *gin.Context) {
	view, ok := qs.pageView(c)
	if !ok {
		return
	}
	qs.renderQuestion(c, http.StatusOK, qs.controller(c, view), nil)
}

// AnswerPageHandler checks the submitted option. A correct answer redirects to
// the next question; a wrong one re-renders the question with game over.
func (qs *QuizServer) AnswerPageHandler(c *gin.Context) {
	view, ok := qs.pageView(c)
	if !ok {
		return
	}
	ctrl := qs.controller(c, navigation.At(view.QuestionID))
	outcome, err := ctrl.Answer(c.Request.Context(), c.PostForm("answer"))
	var inputErr *navigation.InputError
	switch {
	case errors.As(err, &inputErr):
		c.Redirect(http.StatusSeeOther, navigation.At(view.QuestionID).Path())
		return
	case errors.Is(err, quiz.ErrQuestionNotFound):
		qs.renderNotFound(c, c.Param("q"))
		return
	case err != nil:
		qs.renderError(c, err)
		return
	}

	if outcome.Correct {
		c.Redirect(http.StatusSeeOther, outcome.View.Path())
		return
	}
	qs.renderQuestion(c, http.StatusOK, ctrl, func(page *questionPage) {
		page.Outcome = &outcome
	})
}

func (qs *QuizServer) NextPageHandler(c *gin.Context) {
	view, ok := qs.pageView(c)
	if !ok {
		return
	}
	next, err := qs.controller(c, view).Next(c.Request.Context())
	if err != nil {
		qs.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, next.Path())
}

func (qs *QuizServer) RandomPageHandler(c *gin.Context) {
	view, ok := qs.pageView(c)
	if !ok {
		return
	}
	next, err := qs.controller(c, view).Random(c.Request.Context())
	if err != nil {
		qs.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, next.Path())
}

// GoToPageHandler jumps to the typed question number, re-rendering the
// current question with the message when the input is rejected.
func (qs *QuizServer) GoToPageHandler(c *gin.Context) {
	view, ok := qs.pageView(c)
	if !ok {
		return
	}
	ctrl := qs.controller(c, view)
	input := c.PostForm("input")
	next, inputErr, err := ctrl.GoTo(c.Request.Context(), input)
	if err != nil {
		qs.renderError(c, err)
		return
	}
	if inputErr != nil {
		qs.renderQuestion(c, http.StatusBadRequest, ctrl, func(page *questionPage) {
			page.GoToInput = input
			page.GoToError = inputErr.Message
		})
		return
	}
	c.Redirect(http.StatusSeeOther, next.Path())
}

func (qs *QuizServer) ResetGamePageHandler(c *gin.Context) {
	if _, err := qs.SessionManager.For(clientID(c)).ResetGame(c.Request.Context()); err != nil {
		qs.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, returnPath(c))
}

func (qs *QuizServer) FullResetPageHandler(c *gin.Context) {
	if _, err := qs.SessionManager.For(clientID(c)).FullReset(c.Request.Context()); err != nil {
		qs.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, returnPath(c))
}

// returnPath is the quiz page a form asked to come back to, or the landing
// page. Only quiz paths are accepted so the redirect stays on this site.
func returnPath(c *gin.Context) string {
	target := strings.TrimSpace(c.PostForm("return"))
	if view, ok := navigation.ParseURL(target); ok {
		return view.Path()
	}
	return "/"
}
