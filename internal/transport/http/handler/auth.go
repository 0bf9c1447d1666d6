package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/app"
	"mindhaven/internal/model"
	"mindhaven/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required,max=128"`
	Email    string `json:"email" binding:"required,max=128"`
	Password string `json:"password" binding:"required,max=72"`
	Username string `json:"username" binding:"omitempty,min=3,max=64"`
	Gender   string `json:"gender" binding:"required,gender"`
	Age      *int   `json:"age" binding:"required,min=0"`
	Bio      string `json:"bio" binding:"max=2000"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the public user with the bearer token alongside.
type AuthResponse struct {
	model.UserPublic
	Token string `json:"token"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), app.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Username: req.Username,
		Gender:   req.Gender,
		Age:      *req.Age,
		Bio:      req.Bio,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.JSON(c, http.StatusCreated, AuthResponse{UserPublic: result.User.Public(), Token: result.Token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, app.ErrInvalidCredentials)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, AuthResponse{UserPublic: result.User.Public(), Token: result.Token})
}

// Logout is stateless; the client discards its token.
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Message(c, http.StatusOK, "Logged out successfully")
}
