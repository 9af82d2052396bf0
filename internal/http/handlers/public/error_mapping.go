package public

import (
	"errors"

	"github.com/sokoni-shop/internal/http/response"
	"github.com/sokoni-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var customerAuthErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
	{target: service.ErrEmailExists, code: response.CodeBadRequest, msg: "email already registered"},
	{target: service.ErrUsernameExists, code: response.CodeBadRequest, msg: "username already taken"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "invalid email or password"},
	{target: service.ErrAccountDisabled, code: response.CodeUnauthorized, msg: "account is disabled"},
	{target: service.ErrValidation, code: response.CodeBadRequest, msg: "invalid request"},
}

var customerOrderErrorRules = []mappedHandlerError{
	{target: service.ErrValidation, code: response.CodeBadRequest, msg: "invalid order request"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "invalid order item"},
	{target: service.ErrDuplicateOrderItem, code: response.CodeBadRequest, msg: "duplicate product in order items"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "product not found or unavailable"},
	{target: service.ErrAccountDisabled, code: response.CodeUnauthorized, msg: "account is disabled"},
	{target: service.ErrNotFound, code: response.CodeUnauthorized, msg: "account unavailable"},
	{target: service.ErrConflict, code: response.CodeConflict, msg: "order number conflict, please retry"},
}

var catalogErrorRules = []mappedHandlerError{
	{target: service.ErrCategoryNotFound, code: response.CodeNotFound, msg: "category not found"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
}

func respondCaptchaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCaptchaRequired):
		respondError(c, response.CodeBadRequest, "captcha is required", nil)
	case errors.Is(err, service.ErrCaptchaInvalid):
		respondError(c, response.CodeBadRequest, "captcha verification failed", nil)
	case errors.Is(err, service.ErrCaptchaConfigInvalid):
		respondError(c, response.CodeInternal, "captcha is not configured correctly", err)
	default:
		respondError(c, response.CodeInternal, "captcha verification error", err)
	}
}
