package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/app"
	"mindhaven/internal/transport/http/response"
)

type PredictionHandler struct {
	predictionService *app.PredictionService
}

func NewPredictionHandler(predictionService *app.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	var features app.PredictionFeatures
	if err := c.ShouldBindJSON(&features); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.predictionService.Predict(c.Request.Context(), features)
	if err != nil {
		if errors.Is(err, app.ErrUpstream) {
			response.Error(c, http.StatusBadGateway, response.CodeUpstream, "prediction failed")
			return
		}
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", result)
}
