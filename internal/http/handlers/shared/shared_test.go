package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func respondFor(t *testing.T, err error) envelope {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/x", nil)
	RespondServiceError(c, err, "error.internal")
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "unauthorized", err: service.ErrUnauthorized, code: response.CodeForbidden},
		{name: "not found", err: service.ErrOrderNotFound, code: response.CodeNotFound},
		{name: "ack conflict", err: service.ErrAckNotPending, code: response.CodeConflict},
		{name: "wrapped payment", err: fmt.Errorf("%w: gateway timeout", service.ErrPaymentInitFailed), code: response.CodeBadGateway},
		{name: "unknown", err: fmt.Errorf("db exploded"), code: response.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := respondFor(t, tc.err)
			if resp.StatusCode != tc.code {
				t.Fatalf("status_code want %d got %d", tc.code, resp.StatusCode)
			}
		})
	}
}

func TestRespondServiceErrorPaymentMessageIsGeneric(t *testing.T) {
	resp := respondFor(t, fmt.Errorf("%w: secret key sk_live_xxx rejected", service.ErrPaymentInitFailed))
	if resp.Msg != Message("error.payment_init_failed") {
		t.Fatalf("payment failure must use generic message, got %q", resp.Msg)
	}
}

func TestRespondServiceErrorValidationFields(t *testing.T) {
	verr := &service.ValidationError{}
	verr.Add("phone", "is required")
	resp := respondFor(t, verr)
	if resp.StatusCode != response.CodeBadRequest {
		t.Fatalf("status_code want 400 got %d", resp.StatusCode)
	}
	var data struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("unmarshal data failed: %v", err)
	}
	if data.Fields["phone"] != "is required" {
		t.Fatalf("expected phone field error, got %+v", data.Fields)
	}
}

func TestMessageFallsBackToKey(t *testing.T) {
	if got := Message("error.order_not_found"); got != "order not found" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message("error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("unknown key should be returned as is, got %q", got)
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{query: "", wantPage: 1, wantPageSize: 20},
		{query: "page=3&page_size=50", wantPage: 3, wantPageSize: 50},
		{query: "page=0&page_size=-5", wantPage: 1, wantPageSize: 20},
		{query: "page=abc&page_size=xyz", wantPage: 1, wantPageSize: 20},
		{query: "page=2&page_size=500", wantPage: 2, wantPageSize: 100},
		{query: "page=%202%20", wantPage: 2, wantPageSize: 20},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/orders?"+tc.query, nil)
			page, pageSize := ParsePagination(c)
			if page != tc.wantPage || pageSize != tc.wantPageSize {
				t.Fatalf("ParsePagination(%q) = (%d, %d), want (%d, %d)", tc.query, page, pageSize, tc.wantPage, tc.wantPageSize)
			}
		})
	}
}
