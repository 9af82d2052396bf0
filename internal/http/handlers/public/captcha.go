package public

import (
	"github.com/sokoni-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CaptchaChallenge 生成图片验证码
func (h *Handler) CaptchaChallenge(c *gin.Context) {
	if h.CaptchaService == nil {
		respondError(c, response.CodeInternal, "captcha service unavailable", nil)
		return
	}

	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "generate captcha failed", err)
		return
	}

	response.Success(c, gin.H{
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}
