package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	authdomain "github.com/smallbiznis/shipdesk/internal/auth/domain"
	"github.com/smallbiznis/shipdesk/internal/auth/token"
	"github.com/smallbiznis/shipdesk/internal/authorization"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	clientdomain "github.com/smallbiznis/shipdesk/internal/client/domain"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	"github.com/smallbiznis/shipdesk/internal/demodata"
	"github.com/smallbiznis/shipdesk/internal/fieldmap"
	"github.com/smallbiznis/shipdesk/internal/imaging"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	"github.com/smallbiznis/shipdesk/internal/recovery"
	shippingcompanydomain "github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	"github.com/smallbiznis/shipdesk/internal/spreadsheet"
	storedomain "github.com/smallbiznis/shipdesk/internal/store/domain"
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
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
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
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
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

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: err.Error(),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrUserInactive),
		errors.Is(err, recovery.ErrInvalidPasscode):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictCode(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
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

var validationErrors = []error{
	ErrInvalidRequest,
	authdomain.ErrInvalidID,
	authdomain.ErrInvalidUsername,
	authdomain.ErrInvalidEmail,
	authdomain.ErrInvalidRole,
	authdomain.ErrWeakPassword,
	companydomain.ErrInvalidName,
	companydomain.ErrInvalidEmail,
	companydomain.ErrInvalidLogo,
	imaging.ErrEmptyImage,
	imaging.ErrImageTooLarge,
	imaging.ErrUnsupported,
	imaging.ErrInvalidData,
	appsettingsdomain.ErrInvalidCurrency,
	appsettingsdomain.ErrInvalidLanguage,
	appsettingsdomain.ErrInvalidZone,
	appsettingsdomain.ErrInvalidStatus,
	paymentmethoddomain.ErrInvalidID,
	paymentmethoddomain.ErrInvalidName,
	paymentmethoddomain.ErrInvalidFeePercent,
	currencydomain.ErrInvalidCode,
	currencydomain.ErrInvalidName,
	currencydomain.ErrInvalidExchangeRate,
	currencydomain.ErrDefaultInactive,
	citydomain.ErrInvalidID,
	citydomain.ErrInvalidName,
	citydomain.ErrInvalidDeliveryFee,
	storedomain.ErrInvalidID,
	storedomain.ErrInvalidName,
	storedomain.ErrInvalidCity,
	shippingcompanydomain.ErrInvalidID,
	shippingcompanydomain.ErrInvalidName,
	shippingcompanydomain.ErrInvalidTrackingURL,
	clientdomain.ErrInvalidID,
	clientdomain.ErrInvalidName,
	clientdomain.ErrInvalidPhone,
	clientdomain.ErrInvalidEmail,
	clientdomain.ErrInvalidPageToken,
	orderdomain.ErrInvalidID,
	orderdomain.ErrInvalidClient,
	orderdomain.ErrInvalidPhone,
	orderdomain.ErrInvalidAmount,
	orderdomain.ErrInvalidStatus,
	orderdomain.ErrInvalidCity,
	orderdomain.ErrInvalidStore,
	orderdomain.ErrInvalidCurrency,
	orderdomain.ErrInvalidPageToken,
	orderdomain.ErrInvalidReference,
	orderdomain.ErrInvalidTransition,
	orderdomain.ErrInvalidDateRange,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidTimeRange,
	auditdomain.ErrInvalidAction,
	fieldmap.ErrUnknownField,
	fieldmap.ErrReadOnlyField,
	fieldmap.ErrInvalidValue,
	spreadsheet.ErrUnknownEntity,
	spreadsheet.ErrMissingColumn,
	spreadsheet.ErrPDFOrdersOnly,
	spreadsheet.ErrUnsupportedFormat,
	spreadsheet.ErrEmptySheet,
	spreadsheet.ErrTooManyRows,
	demodata.ErrInvalidCount,
	recovery.ErrInvalidUsername,
	recovery.ErrWeakPasscode,
}

// validationErrorCode returns the sentinel code of a domain validation error.
func validationErrorCode(err error) (string, bool) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

var conflictErrors = []error{
	ErrConflict,
	authdomain.ErrUserExists,
	authdomain.ErrLastAdmin,
	appsettingsdomain.ErrDuplicateZone,
	paymentmethoddomain.ErrDuplicateCode,
	paymentmethoddomain.ErrInUse,
	currencydomain.ErrDuplicateCode,
	currencydomain.ErrDeleteDefault,
	currencydomain.ErrInUse,
	citydomain.ErrDuplicateName,
	citydomain.ErrInUse,
	storedomain.ErrDuplicateCode,
	storedomain.ErrInUse,
	shippingcompanydomain.ErrDuplicateCode,
	shippingcompanydomain.ErrInUse,
	clientdomain.ErrDuplicatePhone,
	clientdomain.ErrInUse,
	spreadsheet.ErrImportInProgress,
	demodata.ErrGenerationInProgress,
	gorm.ErrDuplicatedKey,
	gorm.ErrForeignKeyViolated,
}

func isConflictError(err error) bool {
	return conflictCode(err) != ""
}

func conflictCode(err error) string {
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return ""
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, appsettingsdomain.ErrZoneNotFound),
		errors.Is(err, appsettingsdomain.ErrNoShippingRate),
		errors.Is(err, appsettingsdomain.ErrTemplateNotFound),
		errors.Is(err, paymentmethoddomain.ErrNotFound),
		errors.Is(err, currencydomain.ErrNotFound),
		errors.Is(err, citydomain.ErrNotFound),
		errors.Is(err, storedomain.ErrNotFound),
		errors.Is(err, shippingcompanydomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, recovery.ErrNotConfigured),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog reports the envelope type and code logged for a failed request.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	if status == http.StatusConflict {
		return payload.Type, payload.Message
	}
	return payload.Type, http.StatusText(status)
}
