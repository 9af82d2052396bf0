package public

import (
	"errors"
	"strings"
	"time"

	"github.com/sokoni-shop/internal/constants"
	"github.com/sokoni-shop/internal/http/response"
	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email          string                `json:"email" binding:"required"`
	Username       string                `json:"username"`
	Password       string                `json:"password" binding:"required"`
	FirstName      string                `json:"first_name"`
	LastName       string                `json:"last_name"`
	PhoneNumber    string                `json:"phone_number"`
	Address        string                `json:"address"`
	DateOfBirth    string                `json:"date_of_birth"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// Register 客户注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	if h.CaptchaService != nil {
		if captchaErr := h.CaptchaService.Verify(constants.CaptchaSceneRegister, req.CaptchaPayload.ToServicePayload()); captchaErr != nil {
			respondCaptchaError(c, captchaErr)
			return
		}
	}

	input := service.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}
	if dob := strings.TrimSpace(req.DateOfBirth); dob != "" {
		parsed, err := time.Parse("2006-01-02", dob)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid date_of_birth, expected YYYY-MM-DD", nil)
			return
		}
		input.DateOfBirth = &parsed
	}

	customer, token, expiresAt, err := h.CustomerAuthService.Register(input)
	if err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
		respondWithMappedError(c, err, customerAuthErrorRules, response.CodeInternal, "registration failed")
		return
	}

	response.Success(c, gin.H{
		"customer":   customerPayload(customer),
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email          string                `json:"email" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// Login 客户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	if h.CaptchaService != nil {
		if captchaErr := h.CaptchaService.Verify(constants.CaptchaSceneLogin, req.CaptchaPayload.ToServicePayload()); captchaErr != nil {
			respondCaptchaError(c, captchaErr)
			return
		}
	}

	customer, token, expiresAt, err := h.CustomerAuthService.Login(req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, err, customerAuthErrorRules, response.CodeInternal, "login failed")
		return
	}

	response.Success(c, gin.H{
		"customer":   customerPayload(customer),
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// Profile 查询当前客户资料
func (h *Handler) Profile(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}

	customer, err := h.CustomerAuthService.GetCustomerByID(customerID)
	if err != nil {
		respondError(c, response.CodeInternal, "load profile failed", err)
		return
	}
	if customer == nil {
		respondError(c, response.CodeNotFound, "customer not found", nil)
		return
	}

	response.Success(c, customerPayload(customer))
}

// ProfileUpdateRequest 资料更新请求
type ProfileUpdateRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	DateOfBirth *string `json:"date_of_birth"`
}

// UpdateProfile 更新当前客户资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	input := service.ProfileUpdateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}
	if req.DateOfBirth != nil {
		dob := strings.TrimSpace(*req.DateOfBirth)
		if dob != "" {
			parsed, err := time.Parse("2006-01-02", dob)
			if err != nil {
				respondError(c, response.CodeBadRequest, "invalid date_of_birth, expected YYYY-MM-DD", nil)
				return
			}
			input.DateOfBirth = &parsed
		}
	}

	customer, err := h.CustomerAuthService.UpdateProfile(customerID, input)
	if err != nil {
		respondWithMappedError(c, err, customerAuthErrorRules, response.CodeInternal, "update profile failed")
		return
	}

	response.Success(c, customerPayload(customer))
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 修改当前客户密码
func (h *Handler) ChangePassword(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	if err := h.CustomerAuthService.ChangePassword(customerID, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			respondError(c, response.CodeBadRequest, err.Error(), nil)
			return
		}
		respondWithMappedError(c, err, customerAuthErrorRules, response.CodeInternal, "change password failed")
		return
	}

	response.Success(c, gin.H{"changed": true})
}

func customerPayload(customer *models.Customer) gin.H {
	payload := gin.H{
		"id":           customer.ID,
		"email":        customer.Email,
		"username":     customer.Username,
		"first_name":   customer.FirstName,
		"last_name":    customer.LastName,
		"phone_number": customer.PhoneNumber,
		"address":      customer.Address,
		"is_active":    customer.IsActive,
		"is_staff":     customer.IsStaff,
		"created_at":   customer.CreatedAt,
	}
	if customer.DateOfBirth != nil {
		payload["date_of_birth"] = customer.DateOfBirth.Format("2006-01-02")
	}
	if customer.LastLoginAt != nil {
		payload["last_login_at"] = customer.LastLoginAt
	}
	return payload
}
