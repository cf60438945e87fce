package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelbackend/internal/domain"
	"travelbackend/internal/http/middleware"
	"travelbackend/internal/utils"
)

// ErrorResponse is the envelope every failed request gets. Status carries the
// stable error code.
type ErrorResponse struct {
	Status           string `json:"status"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RequestID        string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, httpStatus int, code, description string) {
	c.AbortWithStatusJSON(httpStatus, ErrorResponse{
		Status:           code,
		Error:            code,
		ErrorDescription: description,
		RequestID:        middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. Business-rule
// rejections are delivered as 200 with the code in "status" so clients can
// branch on the body alone.
func RespondDomainError(c *gin.Context, err error) {
	code := domain.Code(err)
	switch code {
	case domain.CodeValidation:
		respondError(c, http.StatusBadRequest, code, err.Error())
	case domain.CodeForbidden:
		respondError(c, http.StatusForbidden, code, err.Error())
	case domain.CodeConflict:
		respondError(c, http.StatusConflict, code, err.Error())
	case domain.CodeNotFound, domain.CodeInvalidState, domain.CodeHoldExpired,
		domain.CodeOrderMismatch, domain.CodeSignatureMismatch,
		domain.CodeVendorFailure, domain.CodeGatewayFailure:
		respondError(c, http.StatusOK, code, err.Error())
	default:
		utils.LogError(middleware.GetRequestID(c), "http", c.FullPath(), "unhandled error", "error", err)
		respondError(c, http.StatusInternalServerError, domain.CodeInternal, "something went wrong")
	}
}
