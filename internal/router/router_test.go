package router

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const routerTestPaystackSecret = "sk_router_test"

type routerFixture struct {
	engine    *gin.Engine
	container *provider.Container
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func newPaystackStub(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		_ = json.Unmarshal(body, &payload)
		reference, _ := payload["reference"].(string)
		_, _ = fmt.Fprintf(w, `{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.test/%s","access_code":"ac","reference":%q}}`, reference, reference)
	}))
	t.Cleanup(server.Close)
	return server
}

func setupRouterTest(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}

	stub := newPaystackStub(t)
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{SecretKey: "router-test-secret", ExpireHours: 1},
		Paystack: config.PaystackConfig{
			SecretKey: routerTestPaystackSecret,
			BaseURL:   stub.URL,
			Currency:  "GHS",
			TimeoutMS: 2000,
		},
		Order: config.OrderConfig{
			PublicBaseURL:       "https://discreetkit.test/",
			MinPhoneLength:      9,
			MinOtherAreaLength:  3,
			TrackingCodeRetries: 5,
			WebhookDedupeHours:  24,
		},
		Pricing: config.PricingConfig{
			DefaultDeliveryFee: 20,
			Campuses: []config.CampusConfig{
				{Name: "University of Ghana (Legon)", DeliveryFee: 10, DeliveryDiscount: 10, StudentPricing: true},
				{Name: "KNUST", DeliveryFee: 15, StudentPricing: true},
			},
		},
		Realtime: config.RealtimeConfig{Broker: "memory", PollIntervalSeconds: 45},
	}
	container := provider.NewContainer(cfg, db)
	t.Cleanup(container.Close)

	return &routerFixture{engine: SetupRouter(cfg, container), container: container}
}

func (f *routerFixture) do(t *testing.T, method, path string, body interface{}, headers map[string]string) envelope {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, w.Code)
	}
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s unmarshal failed: %v body=%s", method, path, err, w.Body.String())
	}
	return resp
}

func (f *routerFixture) mustOK(t *testing.T, resp envelope, out interface{}) {
	t.Helper()
	if resp.StatusCode != 0 {
		t.Fatalf("expected success, got status_code=%d msg=%s data=%s", resp.StatusCode, resp.Msg, string(resp.Data))
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			t.Fatalf("decode data failed: %v data=%s", err, string(resp.Data))
		}
	}
}

func (f *routerFixture) login(t *testing.T, path, username, password string) string {
	t.Helper()
	var data struct {
		Token string `json:"token"`
	}
	f.mustOK(t, f.do(t, http.MethodPost, path, map[string]string{"username": username, "password": password}, nil), &data)
	if data.Token == "" {
		t.Fatalf("expected token from %s", path)
	}
	return data.Token
}

func (f *routerFixture) seedAdmin(t *testing.T) string {
	t.Helper()
	operator, err := f.container.AuthService.CreateOperator("admin", "ops@discreetkit.test", "admin-password", constants.RoleAdmin)
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if err := f.container.AuthzService.SetOperatorRoles(operator.ID, []string{constants.RoleAdmin}); err != nil {
		t.Fatalf("assign admin role failed: %v", err)
	}
	return f.login(t, "/api/v1/admin/login", "admin", "admin-password")
}

func checkoutBody() map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": 1, "name": "HIV Self-Test Kit", "quantity": 1, "price": "75.00"},
		},
		"delivery_area": "University of Ghana (Legon)",
		"phone":         "0241234567",
		"email":         "buyer@example.com",
		"subtotal":      "75.00",
		"discount":      "0",
		"delivery_fee":  "0",
		"total":         "75.00",
	}
}

func signRouterWebhook(body []byte) string {
	mac := hmac.New(sha512.New, []byte(routerTestPaystackSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (f *routerFixture) checkoutAndPay(t *testing.T) (uint, string) {
	t.Helper()
	var created struct {
		OrderID          uint   `json:"order_id"`
		TrackingCode     string `json:"tracking_code"`
		AuthorizationURL string `json:"authorization_url"`
	}
	f.mustOK(t, f.do(t, http.MethodPost, "/api/v1/public/checkout", checkoutBody(), nil), &created)
	if created.TrackingCode == "" || !strings.HasSuffix(created.AuthorizationURL, created.TrackingCode) {
		t.Fatalf("unexpected checkout result: %+v", created)
	}

	webhook := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":%d,"reference":%q,"status":"success","amount":7500,"currency":"GHS"}}`, created.OrderID, created.TrackingCode))
	var ack struct {
		Updated bool `json:"updated"`
	}
	f.mustOK(t, f.do(t, http.MethodPost, "/api/v1/payments/webhook/paystack", webhook, map[string]string{
		"X-Paystack-Signature": signRouterWebhook(webhook),
	}), &ack)
	if !ack.Updated {
		t.Fatalf("expected webhook to mark order paid")
	}
	return created.OrderID, created.TrackingCode
}

func TestPublicConfigAndQuote(t *testing.T) {
	f := setupRouterTest(t)

	var cfg struct {
		Campuses []string `json:"campuses"`
		Realtime struct {
			PollIntervalSeconds int `json:"poll_interval_seconds"`
		} `json:"realtime"`
	}
	f.mustOK(t, f.do(t, http.MethodGet, "/api/v1/public/config", nil, nil), &cfg)
	if len(cfg.Campuses) != 2 || cfg.Realtime.PollIntervalSeconds != 45 {
		t.Fatalf("unexpected public config: %+v", cfg)
	}

	var quote struct {
		Subtotal    string `json:"subtotal"`
		DeliveryFee string `json:"delivery_fee"`
		Total       string `json:"total"`
	}
	f.mustOK(t, f.do(t, http.MethodPost, "/api/v1/public/quote", map[string]interface{}{
		"items":         []map[string]interface{}{{"product_id": 1, "name": "Kit", "quantity": 2, "price": "50"}},
		"delivery_area": "KNUST",
	}, nil), &quote)
	if quote.Subtotal != "100.00" || quote.DeliveryFee != "15.00" || quote.Total != "115.00" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestCheckoutValidationReturnsFields(t *testing.T) {
	f := setupRouterTest(t)
	body := checkoutBody()
	body["phone"] = "123"

	resp := f.do(t, http.MethodPost, "/api/v1/public/checkout", body, nil)
	if resp.StatusCode != 400 {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
	var data struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode fields failed: %v", err)
	}
	if _, ok := data.Fields["phone"]; !ok {
		t.Fatalf("expected phone field error, got %v", data.Fields)
	}
}

func TestCheckoutWebhookAndTracking(t *testing.T) {
	f := setupRouterTest(t)
	_, code := f.checkoutAndPay(t)

	var tracked struct {
		TrackingCode string `json:"tracking_code"`
		Status       string `json:"status"`
		Total        string `json:"total"`
	}
	f.mustOK(t, f.do(t, http.MethodGet, "/api/v1/public/track/"+strings.ToLower(code), nil, nil), &tracked)
	if tracked.Status != constants.OrderStatusReceived || tracked.Total != "75.00" {
		t.Fatalf("unexpected tracked order: %+v", tracked)
	}

	if resp := f.do(t, http.MethodGet, "/api/v1/public/track/AAA-BBB-CCC", nil, nil); resp.StatusCode != 404 {
		t.Fatalf("unknown tracking code want 404 got %d", resp.StatusCode)
	}

	bad := []byte(`{"event":"charge.success","data":{"reference":"` + code + `","status":"success"}}`)
	if resp := f.do(t, http.MethodPost, "/api/v1/payments/webhook/paystack", bad, map[string]string{"X-Paystack-Signature": "deadbeef"}); resp.StatusCode != 401 {
		t.Fatalf("bad signature want 401 got %d", resp.StatusCode)
	}
}

func TestWebhookAmountMismatchLeavesOrderUnpaid(t *testing.T) {
	f := setupRouterTest(t)
	var created struct {
		OrderID      uint   `json:"order_id"`
		TrackingCode string `json:"tracking_code"`
	}
	f.mustOK(t, f.do(t, http.MethodPost, "/api/v1/public/checkout", checkoutBody(), nil), &created)

	forged := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":%d,"reference":%q,"status":"success","amount":100,"currency":"USD"}}`, created.OrderID, created.TrackingCode))
	resp := f.do(t, http.MethodPost, "/api/v1/payments/webhook/paystack", forged, map[string]string{
		"X-Paystack-Signature": signRouterWebhook(forged),
	})
	if resp.StatusCode != 400 {
		t.Fatalf("mismatched amount want 400 got %d (%s)", resp.StatusCode, resp.Msg)
	}

	var tracked struct {
		Status string `json:"status"`
	}
	f.mustOK(t, f.do(t, http.MethodGet, "/api/v1/public/track/"+created.TrackingCode, nil, nil), &tracked)
	if tracked.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("order must stay pending_payment, got %s", tracked.Status)
	}
}

func TestAdminAndPharmacyWorkflow(t *testing.T) {
	f := setupRouterTest(t)
	adminToken := f.seedAdmin(t)
	adminAuth := map[string]string{"Authorization": "Bearer " + adminToken}

	if resp := f.do(t, http.MethodGet, "/api/v1/admin/orders", nil, nil); resp.StatusCode != 401 {
		t.Fatalf("anonymous admin request want 401 got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodPost, "/api/v1/admin/login", map[string]string{"username": "admin", "password": "wrong"}, nil); resp.StatusCode != 401 {
		t.Fatalf("wrong password want 401 got %d", resp.StatusCode)
	}

	var pharmacy struct {
		ID         uint  `json:"id"`
		OperatorID *uint `json:"operator_id"`
	}
	f.mustOK(t, f.do(t, http.MethodPost, "/api/v1/admin/pharmacies", map[string]interface{}{
		"name":              "Legon Pharmacy",
		"location":          "Legon",
		"email":             "legon@pharmacy.test",
		"operator_username": "legon",
		"operator_password": "legon-password",
	}, adminAuth), &pharmacy)
	if pharmacy.ID == 0 || pharmacy.OperatorID == nil {
		t.Fatalf("unexpected pharmacy: %+v", pharmacy)
	}
	pharmacyToken := f.login(t, "/api/v1/pharmacy/login", "legon", "legon-password")
	pharmacyAuth := map[string]string{"Authorization": "Bearer " + pharmacyToken}

	// 药房 token 不能访问管理端
	if resp := f.do(t, http.MethodGet, "/api/v1/admin/orders", nil, pharmacyAuth); resp.StatusCode != 401 {
		t.Fatalf("pharmacy token on admin route want 401 got %d", resp.StatusCode)
	}

	orderID, _ := f.checkoutAndPay(t)
	orderPath := fmt.Sprintf("/api/v1/admin/orders/%d", orderID)
	f.mustOK(t, f.do(t, http.MethodPost, orderPath+"/assign", map[string]uint{"pharmacy_id": pharmacy.ID}, adminAuth), nil)

	var listed struct {
		Items []struct {
			ID uint `json:"id"`
		} `json:"items"`
	}
	f.mustOK(t, f.do(t, http.MethodGet, "/api/v1/pharmacy/orders", nil, pharmacyAuth), &listed)
	if len(listed.Items) != 1 || listed.Items[0].ID != orderID {
		t.Fatalf("expected assigned order in pharmacy list, got %+v", listed.Items)
	}

	acceptPath := fmt.Sprintf("/api/v1/pharmacy/orders/%d/accept", orderID)
	var accepted struct {
		Status            string `json:"status"`
		PharmacyAckStatus string `json:"pharmacy_ack_status"`
	}
	f.mustOK(t, f.do(t, http.MethodPost, acceptPath, nil, pharmacyAuth), &accepted)
	if accepted.Status != constants.OrderStatusProcessing || accepted.PharmacyAckStatus != constants.AckStatusAccepted {
		t.Fatalf("unexpected accept result: %+v", accepted)
	}
	if resp := f.do(t, http.MethodPost, acceptPath, nil, pharmacyAuth); resp.StatusCode != 409 {
		t.Fatalf("second accept want 409 got %d", resp.StatusCode)
	}

	var detail struct {
		Status string `json:"status"`
		Events []struct {
			Status string `json:"status"`
		} `json:"events"`
	}
	f.mustOK(t, f.do(t, http.MethodGet, orderPath, nil, adminAuth), &detail)
	if detail.Status != constants.OrderStatusProcessing || len(detail.Events) == 0 {
		t.Fatalf("unexpected admin detail: %+v", detail)
	}

	if resp := f.do(t, http.MethodPost, orderPath+"/transition", map[string]string{"status": constants.OrderStatusCompleted}, adminAuth); resp.StatusCode != 409 {
		t.Fatalf("skipping transition want 409 got %d", resp.StatusCode)
	}
}

func TestPermissionCatalog(t *testing.T) {
	f := setupRouterTest(t)
	items := buildPermissionCatalog(f.engine)

	found := map[string]bool{}
	for _, item := range items {
		found[item.Permission] = true
		if strings.HasSuffix(item.Object, "/login") {
			t.Fatalf("login route must not be in catalog: %+v", item)
		}
	}
	for _, want := range []string{
		"GET:/admin/orders",
		"POST:/admin/orders/:id/assign",
		"POST:/pharmacy/orders/:id/accept",
		"GET:/pharmacy/stream",
	} {
		if !found[want] {
			t.Fatalf("expected %s in catalog", want)
		}
	}
	if found["POST:/public/checkout"] {
		t.Fatalf("public routes must not be in catalog")
	}
}
