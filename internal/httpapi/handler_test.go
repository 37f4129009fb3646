package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
	"github.com/annalza/mint-stock-flow/internal/operations"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := operations.NewService(operations.Deps{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if err := svc.Restore(context.Background(), true); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	return NewRouter(NewHandler(svc, zap.NewNop()), NewHub(zap.NewNop()), zap.NewNop())
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestListItemsIncludesStatus(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[struct {
		Items []domain.ItemView `json:"items"`
		Count int               `json:"count"`
	}](t, w)
	if body.Count != 5 || body.Items[0].Code != "ITM001" || body.Items[0].Status != domain.StatusInStock {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestReceiveAndIssueDefaults(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/items/1/receive", "")
	if w.Code != http.StatusOK {
		t.Fatalf("receive: expected 200, got %d: %s", w.Code, w.Body)
	}
	if got := decode[domain.ItemView](t, w); got.Qty != 110 {
		t.Fatalf("default receive should add 10, got %d", got.Qty)
	}

	w = do(t, r, http.MethodPost, "/api/v1/items/1/issue", `{}`)
	if got := decode[domain.ItemView](t, w); got.Qty != 105 {
		t.Fatalf("default issue should take 5, got %d", got.Qty)
	}

	w = do(t, r, http.MethodPost, "/api/v1/items/3/issue", `{"qty": 40}`)
	if got := decode[domain.ItemView](t, w); got.Qty != 0 || got.Status != domain.StatusOutOfStock {
		t.Fatalf("issue should clamp at zero, got %+v", got)
	}
}

func TestErrorMapping(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   string
	}{
		{"unknown item", http.MethodGet, "/api/v1/items/99", "", http.StatusNotFound, "NotFound"},
		{"unknown code", http.MethodGet, "/api/v1/items/code/ITM999", "", http.StatusNotFound, "NotFound"},
		{"bad id", http.MethodGet, "/api/v1/items/abc", "", http.StatusBadRequest, "InvalidArgument"},
		{"zero qty", http.MethodPost, "/api/v1/items/1/receive", `{"qty": 0}`, http.StatusBadRequest, "InvalidQuantity"},
		{"negative qty", http.MethodPost, "/api/v1/items/1/issue", `{"qty": -3}`, http.StatusBadRequest, "InvalidQuantity"},
		{"blank name", http.MethodPatch, "/api/v1/items/1", `{"name": "  "}`, http.StatusBadRequest, "InvalidArgument"},
		{"unknown recipe", http.MethodPost, "/api/v1/recipes/9/sell", "", http.StatusNotFound, "NotFound"},
		{"bad filter", http.MethodGet, "/api/v1/procurements?status=DONE", "", http.StatusBadRequest, "InvalidArgument"},
		{"missing item id", http.MethodPost, "/api/v1/procurements", `{"qty": 5}`, http.StatusBadRequest, "InvalidArgument"},
		{"zero procurement qty", http.MethodPost, "/api/v1/procurements", `{"item_id": 1, "qty": 0}`, http.StatusBadRequest, "InvalidQuantity"},
		{"approve decided", http.MethodPost, "/api/v1/procurements/2/approve", "", http.StatusConflict, "InvalidState"},
		{"remove unknown", http.MethodDelete, "/api/v1/procurements/42", "", http.StatusNotFound, "NotFound"},
		{"text receive qty", http.MethodPost, "/api/v1/items/1/receive", `{"qty": "abc"}`, http.StatusBadRequest, "InvalidQuantity"},
		{"text issue qty", http.MethodPost, "/api/v1/items/1/issue", `{"qty": "abc"}`, http.StatusBadRequest, "InvalidQuantity"},
		{"fractional issue qty", http.MethodPost, "/api/v1/items/1/issue", `{"qty": 1.5}`, http.StatusBadRequest, "InvalidQuantity"},
		{"text procurement qty", http.MethodPost, "/api/v1/procurements", `{"item_id": 1, "qty": "abc"}`, http.StatusBadRequest, "InvalidQuantity"},
		{"overflowing receive", http.MethodPost, "/api/v1/items/1/receive", `{"qty": 9223372036854775807}`, http.StatusBadRequest, "InvalidQuantity"},
		{"malformed json", http.MethodPost, "/api/v1/items/1/receive", `{"qty":`, http.StatusBadRequest, "InvalidArgument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body)
			}
			if got := decode[errorResponse](t, w); got.Error != tt.kind {
				t.Fatalf("expected kind %s, got %+v", tt.kind, got)
			}
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/v1/procurements", `{"qty": 5}`)
	got := decode[errorResponse](t, w)
	if got.Fields["ItemID"] != "required" {
		t.Fatalf("expected ItemID required, got %+v", got)
	}
}

func TestSellUntilInsufficient(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/recipes/1/sell", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	sale := decode[domain.SaleResult](t, w)
	if sale.Revenue.StringFixed(2) != "25.00" || len(sale.Items) != 3 {
		t.Fatalf("unexpected sale %+v", sale)
	}

	for i := 0; i < 9; i++ {
		do(t, r, http.MethodPost, "/api/v1/recipes/1/sell", "")
	}
	w = do(t, r, http.MethodPost, "/api/v1/recipes/1/sell", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 once eggs run out, got %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/v1/recipes/1", "")
	if view := decode[domain.RecipeView](t, w); view.CanMake {
		t.Fatalf("cake should be infeasible, got %+v", view)
	}
}

func TestProcurementFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/procurements", `{"item_id": 4, "qty": 12}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}
	created := decode[domain.ProcurementView](t, w)
	if created.ID != 4 || created.RequestedBy != DefaultRequester || created.ItemCode != "ITM004" {
		t.Fatalf("unexpected request %+v", created)
	}

	w = do(t, r, http.MethodPost, "/api/v1/procurements/4/reject", "")
	rejected := decode[domain.ProcurementView](t, w)
	if rejected.Status != domain.ProcurementRejected || *rejected.ApprovedBy != DefaultApprover {
		t.Fatalf("unexpected rejection %+v", rejected)
	}

	w = do(t, r, http.MethodGet, "/api/v1/procurements?status=rejected", "")
	list := decode[struct {
		Procurements []domain.ProcurementView `json:"procurements"`
		Count        int                      `json:"count"`
	}](t, w)
	if list.Count != 2 || list.Procurements[0].ID != 4 {
		t.Fatalf("unexpected rejected list %+v", list)
	}

	w = do(t, r, http.MethodDelete, "/api/v1/procurements/4", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/v1/procurements/counts", "")
	counts := decode[domain.ProcurementCounts](t, w)
	if counts != (domain.ProcurementCounts{All: 3, Pending: 1, Approved: 1, Rejected: 1}) {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestEditItemKeepsQuantity(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPatch, "/api/v1/items/5", `{"location": "Fridge 2", "reorder_level": 20}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	got := decode[domain.ItemView](t, w)
	if got.Location != "Fridge 2" || got.Qty != 15 || got.Status != domain.StatusLowStock {
		t.Fatalf("unexpected item %+v", got)
	}
}

func TestStockReportDownload(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/reports/stock.xlsx", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("body is not a workbook: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) != 3 {
		t.Fatalf("unexpected sheets %v", f.GetSheetList())
	}
}
