package zippypost

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
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("zippypost config invalid")
	ErrRequestFailed   = errors.New("zippypost request failed")
	ErrResponseInvalid = errors.New("zippypost response invalid")
)

const (
	// PaymentTypePrepaid 预付订单
	PaymentTypePrepaid = 1
	// PaymentTypeCOD 货到付款订单
	PaymentTypeCOD = 2

	// MinSKULength SKU 编码最小长度（不足时右侧补零）
	MinSKULength = 3
	// DefaultItemWeightGrams 单件默认重量（克）
	DefaultItemWeightGrams = 500
	// MinPackageWeightKg 包裹计费重量下限（千克）
	MinPackageWeightKg = 0.5
)

// 默认包裹尺寸（厘米）
const (
	DefaultLengthCm  = 20
	DefaultBreadthCm = 15
	DefaultHeightCm  = 10
)

// Config Zippypost 配置
type Config struct {
	BaseURL    string  `json:"base_url"`    // 网关地址
	PublicKey  string  `json:"public_key"`  // 公钥
	PrivateKey string  `json:"private_key"` // 私钥（签名用）
	SellerID   string  `json:"seller_id"`   // 商家ID
	CODCharge  float64 `json:"cod_charge"`  // 货到付款附加费
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.PublicKey) == "" {
		return fmt.Errorf("%w: public_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return fmt.Errorf("%w: private_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SellerID) == "" {
		return fmt.Errorf("%w: seller_id is required", ErrConfigInvalid)
	}
	return nil
}

// Normalize 归一化配置
func (c *Config) Normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.PublicKey = strings.TrimSpace(c.PublicKey)
	c.PrivateKey = strings.TrimSpace(c.PrivateKey)
	c.SellerID = strings.TrimSpace(c.SellerID)
	if c.CODCharge <= 0 {
		c.CODCharge = 50
	}
}

// AuthToken 生成请求令牌。
// 签名串：public_key=<pk>&private_key=<sk>&seller_id=<id>&time_stamp=<ts>，
// 以 private_key 做 HMAC-SHA256，十六进制小写。令牌每次请求重新生成。
func AuthToken(cfg *Config, timestamp int64) string {
	payload := fmt.Sprintf("public_key=%s&private_key=%s&seller_id=%s&time_stamp=%d",
		cfg.PublicKey, cfg.PrivateKey, cfg.SellerID, timestamp)
	mac := hmac.New(sha256.New, []byte(cfg.PrivateKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// ShipmentItem 包裹内商品
type ShipmentItem struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	WeightGrams int     `json:"weight_grams"`
	UnitPrice   float64 `json:"unit_price"`
}

// CreateShipmentInput 创建运单输入
type CreateShipmentInput struct {
	OrderNo           string
	ConsigneeName     string
	ConsigneePhone    string
	AddressLine1      string
	AddressLine2      string
	City              string
	State             string
	Pincode           string
	Country           string
	Items             []ShipmentItem
	IsCOD             bool
	CollectableAmount float64
	DeclaredValue     float64
}

// CreateShipmentResult 创建运单结果
type CreateShipmentResult struct {
	AWBNumber      string                 // 运单号
	TrackingNumber string                 // 跟踪号
	CourierName    string                 // 承运商
	LabelURL       string                 // 面单地址
	Raw            map[string]interface{} // 原始响应
}

// TrackingEvent 轨迹事件
type TrackingEvent struct {
	Status    string `json:"status"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
	Remarks   string `json:"remarks"`
}

// TrackResult 轨迹查询结果
type TrackResult struct {
	AWBNumber string
	RawStatus string
	Events    []TrackingEvent
	Raw       map[string]interface{}
}

// PadSKU SKU 编码不足最小长度时右侧补零
func PadSKU(sku string) string {
	sku = strings.TrimSpace(sku)
	for len(sku) < MinSKULength {
		sku += "0"
	}
	return sku
}

// PackageWeightKg 计算包裹计费重量（千克），未填重量按默认值，低于下限按下限
func PackageWeightKg(items []ShipmentItem) float64 {
	totalGrams := 0
	for _, item := range items {
		weight := item.WeightGrams
		if weight <= 0 {
			weight = DefaultItemWeightGrams
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		totalGrams += weight * qty
	}
	kg := float64(totalGrams) / 1000
	if kg < MinPackageWeightKg {
		kg = MinPackageWeightKg
	}
	return kg
}

// MapStatus 将 Zippypost 状态映射到内部物流状态。
// 未识别的状态返回 false，调用方应丢弃而不是落库。
func MapStatus(raw string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CREATED", "MANIFESTED", "PENDING PICKUP":
		return "created", true
	case "PICKED UP", "PICKED_UP", "PICKUP DONE":
		return "picked_up", true
	case "IN TRANSIT", "IN_TRANSIT", "SHIPPED":
		return "in_transit", true
	case "OUT FOR DELIVERY", "OUT_FOR_DELIVERY":
		return "out_for_delivery", true
	case "DELIVERED":
		return "delivered", true
	case "RTO INITIATED", "RTO_INITIATED", "RTO":
		return "rto_initiated", true
	case "RTO DELIVERED", "RTO_DELIVERED":
		return "rto_delivered", true
	case "CANCELLED", "CANCELED":
		return "cancelled", true
	case "FAILED", "UNDELIVERED", "LOST":
		return "failed", true
	default:
		return "", false
	}
}

// CreateShipment 创建运单
func CreateShipment(ctx context.Context, cfg *Config, input CreateShipmentInput) (*CreateShipmentResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.OrderNo == "" || len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: order no and items are required", ErrConfigInvalid)
	}

	paymentType := PaymentTypePrepaid
	collectable := 0.0
	if input.IsCOD {
		paymentType = PaymentTypeCOD
		collectable = input.CollectableAmount
	}

	country := strings.TrimSpace(input.Country)
	if country == "" {
		country = "India"
	}

	products := make([]map[string]interface{}, 0, len(input.Items))
	for _, item := range input.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		products = append(products, map[string]interface{}{
			"sku":   PadSKU(item.SKU),
			"name":  item.Name,
			"qty":   qty,
			"price": item.UnitPrice,
		})
	}

	params := map[string]interface{}{
		"order_number":       input.OrderNo,
		"consignee_name":     input.ConsigneeName,
		"consignee_phone":    input.ConsigneePhone,
		"address_line1":      input.AddressLine1,
		"address_line2":      input.AddressLine2,
		"city":               input.City,
		"state":              input.State,
		"pincode":            input.Pincode,
		"country":            country,
		"payment_type":       paymentType,
		"collectable_amount": collectable,
		"cod_charge":         cfg.CODCharge,
		"declared_value":     input.DeclaredValue,
		"weight":             PackageWeightKg(input.Items),
		"length":             DefaultLengthCm,
		"breadth":            DefaultBreadthCm,
		"height":             DefaultHeightCm,
		"products":           products,
	}

	respBytes, err := doRequest(ctx, cfg, http.MethodPost, "/shipment", params)
	if err != nil {
		return nil, err
	}

	envelope, raw, err := parseEnvelope(respBytes)
	if err != nil {
		return nil, err
	}

	awb := pickString(envelope, "awb_number", "awb")
	if awb == "" {
		return nil, fmt.Errorf("%w: missing awb number", ErrResponseInvalid)
	}
	tracking := pickString(envelope, "tracking_number", "tracking_id")
	if tracking == "" {
		tracking = awb
	}

	return &CreateShipmentResult{
		AWBNumber:      awb,
		TrackingNumber: tracking,
		CourierName:    pickString(envelope, "courier_name", "courier"),
		LabelURL:       pickString(envelope, "label_url", "label"),
		Raw:            raw,
	}, nil
}

// GetLabel 获取面单地址
func GetLabel(ctx context.Context, cfg *Config, awbNumber string) (string, error) {
	if err := ValidateConfig(cfg); err != nil {
		return "", err
	}
	if strings.TrimSpace(awbNumber) == "" {
		return "", fmt.Errorf("%w: awb number is required", ErrConfigInvalid)
	}

	respBytes, err := doRequest(ctx, cfg, http.MethodGet, "/label/"+strings.TrimSpace(awbNumber), nil)
	if err != nil {
		return "", err
	}
	envelope, _, err := parseEnvelope(respBytes)
	if err != nil {
		return "", err
	}
	label := pickString(envelope, "label_url", "label")
	if label == "" {
		return "", fmt.Errorf("%w: missing label url", ErrResponseInvalid)
	}
	return label, nil
}

// Track 查询物流轨迹
func Track(ctx context.Context, cfg *Config, awbNumber string) (*TrackResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(awbNumber) == "" {
		return nil, fmt.Errorf("%w: awb number is required", ErrConfigInvalid)
	}

	respBytes, err := doRequest(ctx, cfg, http.MethodGet, "/tracking/"+strings.TrimSpace(awbNumber), nil)
	if err != nil {
		return nil, err
	}
	envelope, raw, err := parseEnvelope(respBytes)
	if err != nil {
		return nil, err
	}

	result := &TrackResult{
		AWBNumber: pickString(envelope, "awb_number", "awb"),
		RawStatus: pickString(envelope, "current_status", "status"),
		Raw:       raw,
	}
	if result.AWBNumber == "" {
		result.AWBNumber = strings.TrimSpace(awbNumber)
	}

	if eventsRaw, ok := envelope["events"]; ok {
		if data, err := json.Marshal(eventsRaw); err == nil {
			var events []TrackingEvent
			if err := json.Unmarshal(data, &events); err == nil {
				result.Events = events
			}
		}
	}
	return result, nil
}

// CancelShipment 取消运单
func CancelShipment(ctx context.Context, cfg *Config, awbNumber string) error {
	if err := ValidateConfig(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(awbNumber) == "" {
		return fmt.Errorf("%w: awb number is required", ErrConfigInvalid)
	}

	respBytes, err := doRequest(ctx, cfg, http.MethodPost, "/cancel/shipment/"+strings.TrimSpace(awbNumber), nil)
	if err != nil {
		return err
	}
	if _, _, err := parseEnvelope(respBytes); err != nil {
		return err
	}
	return nil
}

// parseEnvelope 解析响应包。兼容 data / RESULT 两种数据字段命名。
func parseEnvelope(body []byte) (map[string]interface{}, map[string]interface{}, error) {
	if len(body) == 0 {
		return nil, nil, ErrResponseInvalid
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}

	if success, ok := raw["success"].(bool); ok && !success {
		msg := pickString(raw, "message", "error")
		if msg == "" {
			msg = "request rejected"
		}
		return nil, raw, fmt.Errorf("%w: %s", ErrRequestFailed, msg)
	}

	for _, key := range []string{"data", "RESULT", "result"} {
		if data, ok := raw[key].(map[string]interface{}); ok {
			return data, raw, nil
		}
	}
	return raw, raw, nil
}

func pickString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func doRequest(ctx context.Context, cfg *Config, method, path string, params map[string]interface{}) ([]byte, error) {
	var reader io.Reader
	if params != nil {
		body, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		reader = strings.NewReader(string(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	timestamp := time.Now().Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("authorization", AuthToken(cfg, timestamp))
	req.Header.Set("timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("sellerid", cfg.SellerID)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
