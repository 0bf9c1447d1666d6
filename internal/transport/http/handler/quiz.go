package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/app"
	"mindhaven/internal/transport/http/response"
)

type QuizHandler struct {
	quiz *app.Quiz
}

func NewQuizHandler(quiz *app.Quiz) *QuizHandler {
	return &QuizHandler{quiz: quiz}
}

func (h *QuizHandler) Questions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.quiz.Questions())
}
