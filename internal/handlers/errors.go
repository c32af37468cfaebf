package handlers

import (
	"errors"
	"net/http"

	"table_order_backend/internal/models"
	"table_order_backend/internal/services"
	"table_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error kind to the API error response.
// action names the failed operation in the log line and the message.
func respondServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid input.", err.Error()))
	case errors.Is(err, models.ErrEmptyOrder):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeEmptyOrder, "No orderable items in the cart.", err.Error()))
	case errors.Is(err, models.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found.", err.Error()))
	case errors.Is(err, models.ErrInvalidState):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, "Operation not allowed in the current state.", err.Error()))
	case errors.Is(err, models.ErrConflict):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Request conflicts with current data.", err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", err.Error()))
	default:
		utils.LogError(err, action+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
		return
	}
	utils.LogDebug(action+" rejected", map[string]interface{}{"error": err.Error(), "path": c.FullPath()})
}

// parseIDParam reads a non-negative integer path parameter, responding 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id < 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", "must be a non-negative integer"))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}, action string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogDebug(action+": failed to bind JSON", map[string]interface{}{"error": err.Error()})
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return false
	}
	return true
}
