package quiz_server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"meal-quiz/pkg/navigation"
	"meal-quiz/pkg/quiz"
	"meal-quiz/pkg/session"
)

type navigationResponse struct {
	QuestionID int    `json:"questionId"`
	Path       string `json:"path"`
}

func newNavigationResponse(view navigation.View) navigationResponse {
	return navigationResponse{QuestionID: view.QuestionID, Path: view.Path()}
}

type answerRequest struct {
	QuestionID int    `json:"questionId" binding:"required"`
	Answer     string `json:"answer" binding:"required"`
}

type answerResponse struct {
	Correct       bool               `json:"correct"`
	CorrectAnswer string             `json:"correctAnswer"`
	Session       session.State      `json:"session"`
	Next          navigationResponse `json:"next"`
}

func (qs *QuizServer) apiError(c *gin.Context, err error) {
	qs.datasetFailed(c, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// ListQuestionsHandler returns the whole validated collection.
func (qs *QuizServer) ListQuestionsHandler(c *gin.Context) {
	all, err := qs.questions.GetAll(c.Request.Context())
	if err != nil {
		qs.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (qs *QuizServer) CountQuestionsHandler(c *gin.Context) {
	total, err := qs.questions.GetTotalCount(c.Request.Context())
	if err != nil {
		qs.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": total})
}

// RandomQuestionsHandler returns one random question, or ?count=N distinct ones.
func (qs *QuizServer) RandomQuestionsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	raw, hasCount := c.GetQuery("count")
	if !hasCount {
		question, err := qs.questions.GetRandom(ctx)
		if err != nil {
			qs.apiError(c, err)
			return
		}
		c.JSON(http.StatusOK, question)
		return
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
		return
	}
	sample, err := qs.questions.GetRandomN(ctx, count)
	if err != nil {
		qs.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

func (qs *QuizServer) GetQuestionHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question id must be an integer"})
		return
	}
	question, found, err := qs.questions.GetByID(c.Request.Context(), id)
	if err != nil {
		qs.apiError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	c.JSON(http.StatusOK, question)
}

func (qs *QuizServer) NextNavigationHandler(c *gin.Context) {
	current, err := strconv.Atoi(c.Query("current"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current must be an integer"})
		return
	}
	next, err := qs.controller(c, navigation.At(current)).Next(c.Request.Context())
	if err != nil {
		qs.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, newNavigationResponse(next))
}

func (qs *QuizServer) RandomNavigationHandler(c *gin.Context) {
	next, err := qs.controller(c, navigation.At(1)).Random(c.Request.Context())
	if err != nil {
		qs.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, newNavigationResponse(next))
}

// GoToNavigationHandler validates typed input; rejections carry the
// user-facing message with status 400.
func (qs *QuizServer) GoToNavigationHandler(c *gin.Context) {
	next, inputErr, err := qs.controller(c, navigation.At(1)).GoTo(c.Request.Context(), c.Query("input"))
	if err != nil {
		qs.apiError(c, err)
		return
	}
	if inputErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Message})
		return
	}
	c.JSON(http.StatusOK, newNavigationResponse(next))
}

func (qs *QuizServer) SessionStateHandler(c *gin.Context) {
	state, err := qs.SessionManager.For(clientID(c)).State(c.Request.Context())
	if err != nil {
		qs.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SubmitAnswerHandler processes the submission of a quiz answer.
func (qs *QuizServer) SubmitAnswerHandler(c *gin.Context) {
	var request answerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "questionId and answer are required"})
		return
	}

	outcome, err := qs.controller(c, navigation.At(request.QuestionID)).Answer(c.Request.Context(), request.Answer)
	var inputErr *navigation.InputError
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Message})
		return
	case errors.Is(err, quiz.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	case err != nil:
		qs.apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, answerResponse{
		Correct:       outcome.Correct,
		CorrectAnswer: outcome.CorrectAnswer,
		Session:       outcome.Session,
		Next:          newNavigationResponse(outcome.View),
	})
}

func (qs *QuizServer) ResetGameHandler(c *gin.Context) {
	state, err := qs.SessionManager.For(clientID(c)).ResetGame(c.Request.Context())
	if err != nil {
		qs.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (qs *QuizServer) FullResetHandler(c *gin.Context) {
	state, err := qs.SessionManager.For(clientID(c)).FullReset(c.Request.Context())
	if err != nil {
		qs.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
