package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"livequiz/internal/app"
)

// NewRouter assembles the REST API and the leaderboard push channel.
func NewRouter(service *app.QuizService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	quizHandler := NewQuizHandler(service)
	wsHandler := NewWSHandler(service)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	{
		api.POST("/quiz", quizHandler.CreateQuiz)
		api.GET("/quiz/:quiz_id", quizHandler.GetQuiz)
		api.POST("/quiz/:quiz_id/join", quizHandler.JoinQuiz)
		api.POST("/quiz/:quiz_id/answer", quizHandler.SubmitAnswer)
		api.GET("/quiz/:quiz_id/leaderboard", quizHandler.GetLeaderboard)
	}

	r.GET("/ws/quiz/:quiz_id/leaderboard", wsHandler.ServeLeaderboard)

	return r
}
