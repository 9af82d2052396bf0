package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sokoni-shop/internal/config"
	"github.com/sokoni-shop/internal/logger"
)

const defaultTimeout = 5 * time.Second

// Client Africa's Talking 短信客户端
// 未配置 api key 时降级为仅记录日志，不发起外呼。
type Client struct {
	cfg        config.SMSConfig
	httpClient *http.Client
}

// NewClient 创建短信客户端
func NewClient(cfg config.SMSConfig) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled 判断短信通道是否可用
func (c *Client) Enabled() bool {
	return c != nil && c.cfg.Enabled && strings.TrimSpace(c.cfg.APIKey) != ""
}

// Send 发送短信。通道未启用时记录日志并返回 nil。
func (c *Client) Send(ctx context.Context, to, message string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("sms recipient is empty")
	}
	if !c.Enabled() {
		logger.Infow("sms_skipped_channel_disabled",
			"to", to,
			"message", message,
		)
		return nil
	}

	form := url.Values{}
	form.Set("username", c.cfg.Username)
	form.Set("to", to)
	form.Set("message", message)
	if sender := strings.TrimSpace(c.cfg.SenderID); sender != "" {
		form.Set("from", sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("apiKey", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	logger.Infow("sms_sent",
		"to", to,
		"status", resp.StatusCode,
	)
	return nil
}
