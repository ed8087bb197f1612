package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chartvoice/backend/internal/shared"
	"github.com/labstack/echo/v4"
)

func setupHandler(t *testing.T) (*Handler, *echo.Echo) {
	t.Helper()
	store := setupTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(store, logger), echo.New()
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_CreateAndList(t *testing.T) {
	h, e := setupHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/history",
		`{"image_data":"data:image/png;base64,AAAA","signal_type":"buy","confidence":80,"timeframe":"1D","explanation":"breakout","language":"en"}`), rec)
	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected created id in response")
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/api/history", nil), rec)
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	var records []Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 1 || records[0].ID != created.ID {
		t.Errorf("expected created record in list, got %+v", records)
	}
	if records[0].SignalType != shared.SignalBuy {
		t.Errorf("expected signal normalized to BUY, got %s", records[0].SignalType)
	}
	if !strings.Contains(rec.Body.String(), `"signal_type":"BUY"`) {
		t.Errorf("expected signal_type key in serialized record, got %s", rec.Body.String())
	}
}

func TestHandler_CreateRejectsBadSignal(t *testing.T) {
	h, e := setupHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/history",
		`{"image_data":"x","signal_type":"LONG","confidence":50}`), rec)

	err := h.Create(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_CreateRejectsBadConfidence(t *testing.T) {
	h, e := setupHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/history",
		`{"image_data":"x","signal_type":"BUY","confidence":120}`), rec)

	err := h.Create(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_ListEmptyReturnsArray(t *testing.T) {
	h, e := setupHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/history", nil), rec)
	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected empty JSON array, got %s", got)
	}
}

func TestHandler_DeleteMissing(t *testing.T) {
	h, e := setupHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/history/hist_missing", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("hist_missing")

	err := h.Delete(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_Delete(t *testing.T) {
	h, e := setupHandler(t)

	r := sampleRecord(shared.SignalSell)
	if err := h.store.Create(context.Background(), r); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/history/"+r.ID, nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(r.ID)

	if err := h.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode delete response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
}
