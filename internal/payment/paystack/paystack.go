package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrConfigInvalid       = errors.New("paystack config invalid")
	ErrRequestFailed       = errors.New("paystack request failed")
	ErrResponseInvalid     = errors.New("paystack response invalid")
	ErrWebhookVerifyFailed = errors.New("paystack webhook verify failed")
)

const (
	defaultBaseURL  = "https://api.paystack.co"
	defaultCurrency = "GHS"
	defaultTimeout  = 12 * time.Second

	// SignatureHeader Webhook 签名请求头
	SignatureHeader = "x-paystack-signature"
)

// Config Paystack 配置。
type Config struct {
	SecretKey string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

// InitializeInput 初始化交易输入。
type InitializeInput struct {
	Email       string
	AmountMinor int64 // 最小货币单位（pesewas）
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]interface{}
}

// InitializeResult 初始化交易返回。
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// WebhookEvent Paystack Webhook 事件。
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData Webhook 事件数据。
type WebhookData struct {
	ID        int64                  `json:"id"`
	Reference string                 `json:"reference"`
	Status    string                 `json:"status"`
	Amount    int64                  `json:"amount"`
	Currency  string                 `json:"currency"`
	PaidAt    string                 `json:"paid_at"`
	Metadata  map[string]interface{} `json:"metadata"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Normalize 填充默认值并去除空白。
func (c *Config) Normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.BaseURL)); err != nil {
		return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// InitializeTransaction 初始化托管支付交易，返回跳转地址。
func InitializeTransaction(ctx context.Context, cfg *Config, input InitializeInput) (*InitializeResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Email) == "" || strings.TrimSpace(input.Reference) == "" || input.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: transaction input is invalid", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = cfg.Currency
	}

	payload := map[string]interface{}{
		"email":     strings.TrimSpace(input.Email),
		"amount":    input.AmountMinor,
		"currency":  currency,
		"reference": strings.TrimSpace(input.Reference),
	}
	if callback := strings.TrimSpace(input.CallbackURL); callback != "" {
		payload["callback_url"] = callback
	}
	if len(input.Metadata) > 0 {
		payload["metadata"] = input.Metadata
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}

	data, err := call(ctx, cfg, http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}
	var resp struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode data failed", ErrResponseInvalid)
	}
	if strings.TrimSpace(resp.AuthorizationURL) == "" {
		return nil, fmt.Errorf("%w: missing authorization_url", ErrResponseInvalid)
	}
	return &InitializeResult{
		AuthorizationURL: strings.TrimSpace(resp.AuthorizationURL),
		AccessCode:       strings.TrimSpace(resp.AccessCode),
		Reference:        strings.TrimSpace(resp.Reference),
	}, nil
}

// VerifyWebhookSignature 校验 Webhook 签名（HMAC-SHA512，密钥为 secret key）。
func VerifyWebhookSignature(secretKey string, body []byte, signature string) error {
	secretKey = strings.TrimSpace(secretKey)
	signature = strings.ToLower(strings.TrimSpace(signature))
	if secretKey == "" || signature == "" {
		return fmt.Errorf("%w: missing secret or signature", ErrWebhookVerifyFailed)
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrWebhookVerifyFailed)
	}
	return nil
}

// ParseWebhookEvent 解析 Webhook 事件。
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: decode webhook failed", ErrResponseInvalid)
	}
	if strings.TrimSpace(event.Event) == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	event.Data.Reference = strings.TrimSpace(event.Data.Reference)
	return &event, nil
}

// PaidAtTime 解析支付时间。
func (d WebhookData) PaidAtTime() *time.Time {
	return parseTime(d.PaidAt)
}

func call(ctx context.Context, cfg *Config, method, endpoint string, body []byte) (json.RawMessage, error) {
	respBody, statusCode, err := doJSONRequest(ctx, cfg, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("%w: decode response failed (status %d)", ErrResponseInvalid, statusCode)
	}
	if statusCode < 200 || statusCode >= 300 || !env.Status {
		return nil, fmt.Errorf("%w: status %d: %s", ErrResponseInvalid, statusCode, strings.TrimSpace(env.Message))
	}
	return env.Data, nil
}

func doJSONRequest(ctx context.Context, cfg *Config, method, endpoint string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withDefaultTimeout(ctx, cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(cfg.BaseURL, "/")+endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(cfg.SecretKey))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request failed: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return respBody, resp.StatusCode, nil
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

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
