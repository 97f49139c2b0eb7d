package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"livequiz/internal/app"
	"livequiz/internal/domain"
)

// QuizHandler exposes the quiz use cases over REST.
type QuizHandler struct {
	service *app.QuizService
}

func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req domain.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.service.CreateQuiz(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"quiz_id": quiz.ID,
		"title":   quiz.Title,
		"status":  quiz.Status,
	})
}

func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.Param("quiz_id")

	// Correct answers are stripped for participant contexts.
	quiz, err := h.service.GetQuiz(c.Request.Context(), quizID, false)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quiz)
}

func (h *QuizHandler) JoinQuiz(c *gin.Context) {
	quizID := c.Param("quiz_id")

	var req domain.JoinQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	user, err := h.service.Join(c.Request.Context(), quizID, req.Username)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  user.ID,
		"username": user.Username,
	})
}

func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	quizID := c.Param("quiz_id")
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrUserRequired.Error()})
		return
	}

	var req domain.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, _, err := h.service.SubmitAnswer(c.Request.Context(), quizID, userID, req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *QuizHandler) GetLeaderboard(c *gin.Context) {
	quizID := c.Param("quiz_id")

	lb, err := h.service.Leaderboard(c.Request.Context(), quizID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": lb.Entries})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuiz),
		errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrParticipantNotFound),
		errors.Is(err, domain.ErrUserRequired):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
