package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/authorization"
	categorydomain "github.com/smallbiznis/storefront/internal/category/domain"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		if status >= http.StatusInternalServerError || errors.Is(lastErr.Err, productdomain.ErrWriteFailed) {
			logInternalError(c.Request.Context(), lastErr.Err)
		}
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, payload)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Details: validationErrorMessage(code),
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isReferentialError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "referential_error",
			Message: "referenced entity does not exist",
			Details: referentialErrorDetail(err),
		}
	case errors.Is(err, productdomain.ErrWriteFailed):
		return http.StatusBadRequest, errorPayload{
			Type:    "write_error",
			Message: "could not save product",
		}
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_credentials",
			Message: "invalid credentials",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, orderdomain.ErrUnauthorized),
		errors.Is(err, authdomain.ErrNotSelf),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, orderdomain.ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidLimit),
		errors.Is(err, pagination.ErrInvalidPage):
		return true
	case isProductValidationError(err),
		isCategoryValidationError(err),
		isUserValidationError(err),
		isOrderValidationError(err),
		isAuditValidationError(err):
		return true
	default:
		return false
	}
}

func isReferentialError(err error) bool {
	switch {
	case errors.Is(err, productdomain.ErrUnknownCategory),
		errors.Is(err, productdomain.ErrUnknownImage),
		errors.Is(err, productdomain.ErrUnknownOption),
		errors.Is(err, orderdomain.ErrUnknownProduct):
		return true
	default:
		return false
	}
}

func referentialErrorDetail(err error) string {
	switch {
	case errors.Is(err, productdomain.ErrUnknownCategory):
		return "one or more categories do not exist"
	case errors.Is(err, productdomain.ErrUnknownImage):
		return "image does not belong to this product"
	case errors.Is(err, productdomain.ErrUnknownOption):
		return "option does not belong to this product"
	case errors.Is(err, orderdomain.ErrUnknownProduct):
		return "one or more products do not exist"
	default:
		return ""
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrImageNotFound),
		errors.Is(err, categorydomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrTrackingNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, productdomain.ErrNotFound):
		return "product not found"
	case errors.Is(err, productdomain.ErrImageNotFound):
		return "image not found"
	case errors.Is(err, categorydomain.ErrNotFound):
		return "category not found"
	case errors.Is(err, authdomain.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, orderdomain.ErrNotFound):
		return "order not found"
	case errors.Is(err, orderdomain.ErrTrackingNotFound):
		return "tracking not found"
	default:
		return "not found"
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "password_mismatch":
		return "confirmPassword"
	case "email_in_use":
		return "email"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "password_mismatch":
		return "passwords do not match"
	case "email_in_use":
		return "email already in use"
	case "invalid_limit":
		return "limit must be -1 or a positive integer"
	case "invalid_page":
		return "page must be a positive integer"
	default:
		return "invalid value"
	}
}

func isProductValidationError(err error) bool {
	switch {
	case errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidSlug),
		errors.Is(err, productdomain.ErrInvalidStock),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidImage),
		errors.Is(err, productdomain.ErrInvalidImageContent),
		errors.Is(err, productdomain.ErrInvalidOption),
		errors.Is(err, productdomain.ErrInvalidOptionTitle),
		errors.Is(err, productdomain.ErrInvalidOptionShape),
		errors.Is(err, productdomain.ErrInvalidOptionType),
		errors.Is(err, productdomain.ErrInvalidOptionRadius),
		errors.Is(err, productdomain.ErrInvalidOptionValues):
		return true
	default:
		return false
	}
}

func isCategoryValidationError(err error) bool {
	switch {
	case errors.Is(err, categorydomain.ErrInvalidName),
		errors.Is(err, categorydomain.ErrInvalidSlug),
		errors.Is(err, categorydomain.ErrInvalidUseInMenu),
		errors.Is(err, categorydomain.ErrInvalidField),
		errors.Is(err, categorydomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isUserValidationError(err error) bool {
	switch {
	case errors.Is(err, authdomain.ErrInvalidFirstname),
		errors.Is(err, authdomain.ErrInvalidSurname),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrInvalidPassword),
		errors.Is(err, authdomain.ErrPasswordMismatch),
		errors.Is(err, authdomain.ErrEmailInUse):
		return true
	default:
		return false
	}
}

func isOrderValidationError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrInvalidUser),
		errors.Is(err, orderdomain.ErrInvalidItems),
		errors.Is(err, orderdomain.ErrInvalidQuantity),
		errors.Is(err, orderdomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isAuditValidationError(err error) bool {
	switch {
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds error_type and error_code into the request log line.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func logInternalError(ctx context.Context, err error) {
	logger.FromContext(ctx).Error("request failed", zap.Error(err))
}
