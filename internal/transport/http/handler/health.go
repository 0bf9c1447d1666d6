package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mindhaven/internal/bootstrap"
)

const (
	statusUp      = "up"
	statusDown    = "down"
	statusSkipped = "skipped"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]dependencyStatus{
		"mysql":    h.checkMySQL(ctx),
		"redis":    h.checkRedis(ctx),
		"rabbitmq": h.checkRabbitMQ(),
	}

	statusCode := http.StatusOK
	for _, dep := range deps {
		if dep.Status == statusDown {
			statusCode = http.StatusServiceUnavailable
		}
	}

	c.JSON(statusCode, gin.H{
		"app":          h.app.Config.App.Name,
		"env":          h.app.Config.App.Env,
		"uptime_sec":   int(time.Since(h.app.StartedAt).Seconds()),
		"dependencies": deps,
	})
}

func (h *HealthHandler) checkMySQL(ctx context.Context) dependencyStatus {
	if h.app.MySQL == nil {
		return dependencyStatus{Status: statusDown, Message: "not connected"}
	}
	sqlDB, err := h.app.MySQL.DB()
	if err != nil {
		return dependencyStatus{Status: statusDown, Message: err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return dependencyStatus{Status: statusDown, Message: err.Error()}
	}
	return dependencyStatus{Status: statusUp}
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if h.app.Redis == nil {
		return dependencyStatus{Status: statusSkipped}
	}
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{Status: statusDown, Message: err.Error()}
	}
	return dependencyStatus{Status: statusUp}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn == nil {
		return dependencyStatus{Status: statusSkipped}
	}
	if h.app.MQConn.IsClosed() {
		return dependencyStatus{Status: statusDown, Message: "connection closed"}
	}
	return dependencyStatus{Status: statusUp}
}
