package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/app"
	"mindhaven/internal/transport/http/middleware"
	"mindhaven/internal/transport/http/response"
)

type PostHandler struct {
	postService *app.PostService
}

// PostRequest has no binding tags: the service validates after the existence
// and ownership checks so update errors come out in that order.
type PostRequest struct {
	Title   string   `json:"title"`
	Article string   `json:"article"`
	Options string   `json:"options"`
	Tags    []string `json:"tags"`
}

func (r PostRequest) input() app.PostInput {
	return app.PostInput{
		Title:    r.Title,
		Article:  r.Article,
		Category: r.Options,
		Tags:     r.Tags,
	}
}

func NewPostHandler(postService *app.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.postService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts)
}

func (h *PostHandler) Get(c *gin.Context) {
	id, ok := parseID(c, app.ErrPostNotFound)
	if !ok {
		return
	}
	post, err := h.postService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post)
}

func (h *PostHandler) Create(c *gin.Context) {
	callerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	post, err := h.postService.Create(c.Request.Context(), callerID, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	callerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
		return
	}
	id, ok := parseID(c, app.ErrPostNotFound)
	if !ok {
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	post, err := h.postService.Update(c.Request.Context(), callerID, id, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	callerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
		return
	}
	id, ok := parseID(c, app.ErrPostNotFound)
	if !ok {
		return
	}

	if err := h.postService.Delete(c.Request.Context(), callerID, id); err != nil {
		writeError(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Post deleted")
}
