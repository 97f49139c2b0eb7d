package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"livequiz/internal/app"
	"livequiz/internal/domain"
)

// WSHandler pushes leaderboard updates to viewers over a one-way channel:
// the server writes leaderboard_update frames, the client sends nothing.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeLeaderboard upgrades the request and streams updates for one quiz
// until the viewer disconnects.
func (h *WSHandler) ServeLeaderboard(c *gin.Context) {
	quizID := c.Param("quiz_id")

	if _, err := h.service.GetQuiz(c.Request.Context(), quizID, false); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(c.Request.Context(), quizID)
	if err != nil {
		return
	}
	defer cancel()

	// The read side only drains control frames and detects disconnects.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return
			}
			frame := domain.LeaderboardUpdate{
				Type:        domain.LeaderboardUpdateType,
				Leaderboard: lb.Entries,
				UpdatedAt:   lb.UpdatedAt,
			}
			if err := conn.WriteJSON(frame); err != nil {
				log.Printf("ws write error for quiz %s: %v", quizID, err)
				return
			}
		case <-readerDone:
			return
		}
	}
}
