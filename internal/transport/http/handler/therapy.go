package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/app"
	"mindhaven/internal/transport/http/middleware"
	"mindhaven/internal/transport/http/response"
)

type TherapyHandler struct {
	therapyService *app.TherapyService
}

type ChatRequest struct {
	Message     string         `json:"message"`
	QuizAnswers map[int]string `json:"quizAnswers"`
}

func NewTherapyHandler(therapyService *app.TherapyService) *TherapyHandler {
	return &TherapyHandler{therapyService: therapyService}
}

func (h *TherapyHandler) Send(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.therapyService.Send(c.Request.Context(), app.ChatInput{
		UserID:      userID,
		Content:     req.Message,
		QuizAnswers: req.QuizAnswers,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Stream relays the reply as server-sent events: one "data:" frame per chunk,
// then "event: done" with the full reply, or "event: error".
func (h *TherapyHandler) Stream(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
	}
	writeFrame := func(frame string) error {
		start()
		if _, err := c.Writer.Write([]byte(frame)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	full, err := h.therapyService.Stream(c.Request.Context(), app.ChatInput{
		UserID:      userID,
		Content:     req.Message,
		QuizAnswers: req.QuizAnswers,
	}, func(chunk string) error {
		return writeFrame("data: " + sanitizeSSE(chunk) + "\n\n")
	})
	if err != nil {
		if !started {
			writeError(c, err)
			return
		}
		message := "stream failed"
		if errors.Is(err, app.ErrUpstream) {
			message = "upstream service failed"
		}
		_ = writeFrame("event: error\ndata: " + message + "\n\n")
		return
	}

	_ = writeFrame("event: done\ndata: " + sanitizeSSE(full) + "\n\n")
}

func (h *TherapyHandler) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "validation failed: limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	history, err := h.therapyService.History(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history)
}

func (h *TherapyHandler) Clear(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
		return
	}
	if err := h.therapyService.Clear(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Chat history cleared")
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}
