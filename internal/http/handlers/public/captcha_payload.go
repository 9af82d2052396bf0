package public

import handlershared "github.com/sokoni-shop/internal/http/handlers/shared"

// CaptchaPayloadRequest 验证码请求载荷别名
type CaptchaPayloadRequest = handlershared.CaptchaPayloadRequest
