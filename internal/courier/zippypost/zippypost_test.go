package zippypost

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testConfig(baseURL string) *Config {
	cfg := &Config{
		BaseURL:    baseURL,
		PublicKey:  "pub_key",
		PrivateKey: "priv_key",
		SellerID:   "seller_1",
	}
	cfg.Normalize()
	return cfg
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{
		BaseURL:    " https://gateway.example.com/ ",
		PublicKey:  " pub ",
		PrivateKey: " priv ",
		SellerID:   " s1 ",
	}
	cfg.Normalize()

	if cfg.BaseURL != "https://gateway.example.com" {
		t.Fatalf("base url should be trimmed, got %s", cfg.BaseURL)
	}
	if cfg.CODCharge != 50 {
		t.Fatalf("default cod charge want 50 got %v", cfg.CODCharge)
	}
}

func TestAuthTokenDeterministic(t *testing.T) {
	cfg := testConfig("https://gateway.example.com")

	first := AuthToken(cfg, 1700000000)
	second := AuthToken(cfg, 1700000000)
	if first != second {
		t.Fatalf("token should be deterministic for same timestamp")
	}
	if len(first) != 64 || first != strings.ToLower(first) {
		t.Fatalf("token should be lowercase hmac-sha256 hex, got %s", first)
	}
	if AuthToken(cfg, 1700000001) == first {
		t.Fatalf("token should change with timestamp")
	}

	other := testConfig("https://gateway.example.com")
	other.PrivateKey = "different"
	if AuthToken(other, 1700000000) == first {
		t.Fatalf("token should change with private key")
	}
}

func TestPadSKU(t *testing.T) {
	cases := map[string]string{
		"A":          "A00",
		"AB":         "AB0",
		"ABC":        "ABC",
		"TSH-BLK-M":  "TSH-BLK-M",
		"  X  ":      "X00",
		"":           "000",
	}
	for input, want := range cases {
		if got := PadSKU(input); got != want {
			t.Fatalf("PadSKU(%q) want %q got %q", input, want, got)
		}
	}
}

func TestPackageWeightKg(t *testing.T) {
	items := []ShipmentItem{
		{WeightGrams: 200, Quantity: 2},
		{WeightGrams: 600, Quantity: 1},
	}
	if got := PackageWeightKg(items); got != 1.0 {
		t.Fatalf("weight want 1.0 got %v", got)
	}

	// 未填重量按默认值，数量非法按 1
	fallback := []ShipmentItem{{WeightGrams: 0, Quantity: 0}}
	if got := PackageWeightKg(fallback); got != 0.5 {
		t.Fatalf("fallback weight want 0.5 got %v", got)
	}

	// 低于计费下限按下限
	tiny := []ShipmentItem{{WeightGrams: 100, Quantity: 1}}
	if got := PackageWeightKg(tiny); got != MinPackageWeightKg {
		t.Fatalf("minimum weight want %v got %v", MinPackageWeightKg, got)
	}
}

func TestMapStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"MANIFESTED", "created", true},
		{"picked up", "picked_up", true},
		{"In Transit", "in_transit", true},
		{"OUT FOR DELIVERY", "out_for_delivery", true},
		{"DELIVERED", "delivered", true},
		{"RTO", "rto_initiated", true},
		{"RTO DELIVERED", "rto_delivered", true},
		{"CANCELED", "cancelled", true},
		{"LOST", "failed", true},
		{"SOMETHING ELSE", "", false},
	}
	for _, tc := range cases {
		got, ok := MapStatus(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("MapStatus(%q) want (%q, %v) got (%q, %v)", tc.raw, tc.want, tc.ok, got, ok)
		}
	}
}

func TestCreateShipment(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shipment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("authorization") == "" || r.Header.Get("timestamp") == "" {
			t.Errorf("auth headers missing")
		}
		if r.Header.Get("sellerid") != "seller_1" {
			t.Errorf("sellerid header mismatch: %s", r.Header.Get("sellerid"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request failed: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"awb_number":"AWB123","courier_name":"BlueDart","label_url":"https://labels.example.com/AWB123.pdf"}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	result, err := CreateShipment(context.Background(), cfg, CreateShipmentInput{
		OrderNo:        "ORD-1",
		ConsigneeName:  "Asha",
		ConsigneePhone: "9999999999",
		AddressLine1:   "12 MG Road",
		City:           "Bengaluru",
		State:          "Karnataka",
		Pincode:        "560001",
		Items: []ShipmentItem{
			{SKU: "AB", Name: "Tee", Quantity: 2, WeightGrams: 200, UnitPrice: 499},
		},
		IsCOD:             true,
		CollectableAmount: 1048,
		DeclaredValue:     998,
	})
	if err != nil {
		t.Fatalf("create shipment failed: %v", err)
	}
	if result.AWBNumber != "AWB123" {
		t.Fatalf("awb want AWB123 got %s", result.AWBNumber)
	}
	if result.TrackingNumber != "AWB123" {
		t.Fatalf("tracking should fall back to awb, got %s", result.TrackingNumber)
	}
	if result.CourierName != "BlueDart" {
		t.Fatalf("courier want BlueDart got %s", result.CourierName)
	}

	if captured["payment_type"].(float64) != PaymentTypeCOD {
		t.Fatalf("cod order should send payment_type 2, got %v", captured["payment_type"])
	}
	if captured["collectable_amount"].(float64) != 1048 {
		t.Fatalf("collectable amount mismatch: %v", captured["collectable_amount"])
	}
	if captured["country"].(string) != "India" {
		t.Fatalf("default country want India got %v", captured["country"])
	}
	products := captured["products"].([]interface{})
	first := products[0].(map[string]interface{})
	if first["sku"].(string) != "AB0" {
		t.Fatalf("sku should be padded, got %v", first["sku"])
	}
}

func TestCreateShipmentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"pincode not serviceable"}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	_, err := CreateShipment(context.Background(), cfg, CreateShipmentInput{
		OrderNo: "ORD-1",
		Items:   []ShipmentItem{{SKU: "ABC", Name: "Tee", Quantity: 1}},
	})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("rejected shipment want ErrRequestFailed got %v", err)
	}
	if !strings.Contains(err.Error(), "pincode not serviceable") {
		t.Fatalf("error should carry gateway message, got %v", err)
	}
}

func TestTrackParsesResultEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracking/AWB123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"RESULT":{"awb_number":"AWB123","current_status":"IN TRANSIT","events":[{"status":"PICKED UP","location":"Bengaluru","timestamp":"2026-08-29T10:00:00Z"},{"status":"IN TRANSIT","location":"Mumbai","timestamp":"2026-08-30T08:00:00Z"}]}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	result, err := Track(context.Background(), cfg, "AWB123")
	if err != nil {
		t.Fatalf("track failed: %v", err)
	}
	if result.AWBNumber != "AWB123" || result.RawStatus != "IN TRANSIT" {
		t.Fatalf("track result mismatch: %+v", result)
	}
	if len(result.Events) != 2 {
		t.Fatalf("events want 2 got %d", len(result.Events))
	}
	if result.Events[1].Location != "Mumbai" {
		t.Fatalf("event location mismatch: %+v", result.Events[1])
	}
}

func TestGetLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/label/AWB123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"label_url":"https://labels.example.com/AWB123.pdf"}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	label, err := GetLabel(context.Background(), cfg, "AWB123")
	if err != nil {
		t.Fatalf("get label failed: %v", err)
	}
	if label != "https://labels.example.com/AWB123.pdf" {
		t.Fatalf("label url mismatch: %s", label)
	}
}

func TestValidateConfigMissingFields(t *testing.T) {
	if err := ValidateConfig(nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("nil config want ErrConfigInvalid got %v", err)
	}
	cfg := testConfig("https://gateway.example.com")
	cfg.SellerID = ""
	if err := ValidateConfig(cfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing seller id want ErrConfigInvalid got %v", err)
	}
}
