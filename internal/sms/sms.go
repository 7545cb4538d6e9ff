// Package sms 短信网关客户端（Arkesel v2 兼容接口）。
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/breaker"

	"github.com/sony/gobreaker"
)

var (
	ErrConfigInvalid   = errors.New("sms config invalid")
	ErrRecipientEmpty  = errors.New("sms recipient empty")
	ErrRequestFailed   = errors.New("sms request failed")
	ErrResponseInvalid = errors.New("sms response invalid")
)

const (
	defaultTimeout     = 12 * time.Second
	defaultCountryCode = "233"
	sendEndpoint       = "/api/v2/sms/send"
)

// Config 短信网关配置
type Config struct {
	BaseURL     string
	APIKey      string
	SenderID    string
	CountryCode string
	Timeout     time.Duration
}

// Normalize 补全默认值
func (c *Config) Normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.SenderID = strings.TrimSpace(c.SenderID)
	c.CountryCode = strings.TrimPrefix(strings.TrimSpace(c.CountryCode), "+")
	if c.CountryCode == "" {
		c.CountryCode = defaultCountryCode
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if cfg.BaseURL == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("%w: api_key is required", ErrConfigInvalid)
	}
	if cfg.SenderID == "" {
		return fmt.Errorf("%w: sender_id is required", ErrConfigInvalid)
	}
	return nil
}

// NormalizeRecipient 本地号码前导 0 替换为国家码，去掉空格、横线与加号
func NormalizeRecipient(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(phone) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	countryCode = strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if countryCode == "" {
		countryCode = defaultCountryCode
	}
	if strings.HasPrefix(digits, "0") {
		return countryCode + strings.TrimPrefix(digits, "0")
	}
	return digits
}

type sendRequest struct {
	Sender     string   `json:"sender"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client 带熔断的短信客户端
type Client struct {
	cfg        Config
	cb         *gobreaker.CircuitBreaker
	httpClient *http.Client
}

// NewClient 创建短信客户端
func NewClient(cfg Config) *Client {
	cfg.Normalize()
	return &Client{
		cfg:        cfg,
		cb:         breaker.New("sms", breaker.DefaultSettings()),
		httpClient: http.DefaultClient,
	}
}

// Send 发送单条短信
func (c *Client) Send(ctx context.Context, recipient, message string) error {
	if err := ValidateConfig(&c.cfg); err != nil {
		return err
	}
	recipient = NormalizeRecipient(recipient, c.cfg.CountryCode)
	if recipient == "" {
		return ErrRecipientEmpty
	}
	body, err := json.Marshal(sendRequest{
		Sender:     c.cfg.SenderID,
		Message:    message,
		Recipients: []string{recipient},
	})
	if err != nil {
		return fmt.Errorf("%w: encode request failed", ErrRequestFailed)
	}
	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, body)
	})
	return err
}

func (c *Client) send(ctx context.Context, body []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withDefaultTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+sendEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http request failed: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("%w: decode response failed (status %d)", ErrResponseInvalid, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !strings.EqualFold(parsed.Status, "success") {
		return fmt.Errorf("%w: status %d: %s", ErrResponseInvalid, resp.StatusCode, strings.TrimSpace(parsed.Message))
	}
	return nil
}

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
