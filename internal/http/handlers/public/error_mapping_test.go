package public

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sketezo-next/internal/http/response"
	"github.com/sketezo-next/internal/service"

	"github.com/gin-gonic/gin"
)

func decodeErrorResponse(t *testing.T, recorder *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return body
}

func TestOrderCreateErrorCarriesStockDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	respondOrderCreateError(c, fmt.Errorf("%w: only 2 available", service.ErrInsufficientStock))

	body := decodeErrorResponse(t, recorder)
	if body.StatusCode != response.CodeBadRequest {
		t.Fatalf("status code want %d got %d", response.CodeBadRequest, body.StatusCode)
	}
	if !strings.Contains(body.Msg, "only 2 available") {
		t.Fatalf("msg should carry remaining quantity, got %q", body.Msg)
	}
}

func TestOrderCreateErrorStaticMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)

	respondOrderCreateError(c, service.ErrAddressNotFound)

	body := decodeErrorResponse(t, recorder)
	if body.StatusCode != response.CodeBadRequest {
		t.Fatalf("status code want %d got %d", response.CodeBadRequest, body.StatusCode)
	}
	if body.Msg != "address not found" {
		t.Fatalf("msg want 'address not found' got %q", body.Msg)
	}
}
