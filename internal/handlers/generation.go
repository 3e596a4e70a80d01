package handlers

import (
	"context"
	"net/http"

	"github.com/Anoka2002/codecraftagent/internal/codegen"
	"github.com/Anoka2002/codecraftagent/internal/middleware"
	"github.com/Anoka2002/codecraftagent/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Generator produces code for a request
type Generator interface {
	Generate(ctx context.Context, req models.CodeRequest) (*models.CodeResponse, error)
}

// GenerationHandler handles code generation endpoints
type GenerationHandler struct {
	generator Generator
	logger    *zap.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(generator Generator, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{generator: generator, logger: logger}
}

// GenerateCode godoc
// @Summary Generate code from a natural-language prompt
// @Description Picks a language when none is given, asks the completion service for code and formats it when a formatter is installed.
// @Tags generation
// @Accept json
// @Produce json
// @Param request body models.CodeRequest true "Generation request"
// @Success 200 {object} models.CodeResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 429 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /generate_code [post]
func (h *GenerationHandler) GenerateCode(c *gin.Context) {
	var req models.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ValidationFailed(c, err.Error())
		return
	}

	resp, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		switch codegen.Classify(err) {
		case codegen.KindValidation:
			middleware.BadRequest(c, err.Error())
		case codegen.KindNetwork:
			middleware.NetworkError(c, err)
		default:
			h.logger.Error("code generation failed",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.Error(err),
			)
			middleware.InternalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
