package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/app"
	"mindhaven/internal/transport/http/middleware"
	"mindhaven/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
}

// ProfileRequest fields are optional; absent fields are left unchanged.
type ProfileRequest struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Gender   *string `json:"gender"`
	Age      *int    `json:"age"`
	Bio      *string `json:"bio"`
}

func NewUserHandler(userService *app.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c, app.ErrUserNotFound)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user.Public())
}

func (h *UserHandler) Posts(c *gin.Context) {
	id, ok := parseID(c, app.ErrUserNotFound)
	if !ok {
		return
	}
	posts, err := h.userService.PostsByUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts)
}

func (h *UserHandler) Update(c *gin.Context) {
	callerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "unauthorized: invalid token")
		return
	}
	id, ok := parseID(c, app.ErrUserNotFound)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), callerID, id, app.ProfileUpdate{
		Name:     req.Name,
		Username: req.Username,
		Gender:   req.Gender,
		Age:      req.Age,
		Bio:      req.Bio,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user.Public())
}
