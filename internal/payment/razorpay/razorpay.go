package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("razorpay config invalid")
	ErrRequestFailed    = errors.New("razorpay request failed")
	ErrResponseInvalid  = errors.New("razorpay response invalid")
	ErrSignatureInvalid = errors.New("razorpay signature invalid")
)

// DefaultBaseURL Razorpay API 地址
const DefaultBaseURL = "https://api.razorpay.com/v1"

// Config Razorpay 配置
type Config struct {
	KeyID     string `json:"key_id"`     // API Key ID
	KeySecret string `json:"key_secret"` // API Key Secret（签名校验用）
	Currency  string `json:"currency"`   // 币种，默认 INR
	BaseURL   string `json:"base_url"`   // API 地址，默认官方网关
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeyID) == "" {
		return fmt.Errorf("%w: key_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	return nil
}

// Normalize 归一化配置
func (c *Config) Normalize() {
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.KeySecret = strings.TrimSpace(c.KeySecret)
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Currency == "" {
		c.Currency = "INR"
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// CreateInput 创建支付单输入
type CreateInput struct {
	Receipt     string            // 商户订单编号
	AmountMinor int64             // 金额（最小货币单位，INR 为 paise）
	Currency    string            // 币种，为空时使用配置默认
	Notes       map[string]string // 附加信息
}

// CreateResult 创建支付单结果
type CreateResult struct {
	OrderID     string                 // 网关支付单号
	AmountMinor int64                  // 金额（最小货币单位）
	Currency    string                 // 币种
	Receipt     string                 // 商户订单编号
	Status      string                 // 网关状态
	Raw         map[string]interface{} // 原始响应
}

// CreateOrder 创建网关支付单
func CreateOrder(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.Receipt == "" || input.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: receipt and amount are required", ErrConfigInvalid)
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = cfg.Currency
	}

	params := map[string]interface{}{
		"amount":   input.AmountMinor,
		"currency": currency,
		"receipt":  input.Receipt,
	}
	if len(input.Notes) > 0 {
		params["notes"] = input.Notes
	}

	respBytes, err := postJSON(ctx, cfg, cfg.BaseURL+"/orders", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)

	return &CreateResult{
		OrderID:     resp.ID,
		AmountMinor: resp.Amount,
		Currency:    resp.Currency,
		Receipt:     resp.Receipt,
		Status:      resp.Status,
		Raw:         raw,
	}, nil
}

// Sign 计算支付签名
// 签名规则：HMAC-SHA256(key_secret, "<order_id>|<payment_id>")，十六进制小写
func Sign(cfg *Config, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(cfg.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature 校验支付签名（恒定时间比较）
func VerifySignature(cfg *Config, orderID, paymentID, signature string) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrSignatureInvalid
	}
	expected := Sign(cfg, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return ErrSignatureInvalid
	}
	return nil
}

func postJSON(ctx context.Context, cfg *Config, endpoint string, params map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(cfg.KeyID, cfg.KeySecret)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
