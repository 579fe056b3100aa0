package handlers

import (
	"context"
	"net/http"
	"time"

	"rds-user-initializer/internal/middleware"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/gin-gonic/gin"
)

// Invoker runs a custom-resource event and returns the response record
type Invoker interface {
	Invoke(ctx context.Context, event cfn.Event) (*cfn.Response, error)
}

// InvocationHandler exposes the custom-resource handler over HTTP for local runs
type InvocationHandler struct {
	invoker Invoker
}

// NewInvocationHandler creates a new invocation handler
func NewInvocationHandler(invoker Invoker) *InvocationHandler {
	return &InvocationHandler{
		invoker: invoker,
	}
}

// Invoke accepts a CloudFormation custom-resource event and returns the response record.
// Both SUCCESS and FAILED records are returned with 200; the status is in the body.
func (h *InvocationHandler) Invoke(c *gin.Context) {
	var event cfn.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, middleware.NewErrorResponse(c, "Invalid request body", err.Error()))
		return
	}

	response, err := h.invoker.Invoke(c.Request.Context(), event)
	if response != nil {
		c.Set(middleware.InvocationStatusKey, string(response.Status))
	}

	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, middleware.NewErrorResponse(c, "Failed to deliver response", err.Error()))
		return
	}

	c.JSON(http.StatusOK, response)
}

// Health reports that the runner is up
func (h *InvocationHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "rds-user-initializer",
		"timestamp": time.Now().UTC(),
	})
}
