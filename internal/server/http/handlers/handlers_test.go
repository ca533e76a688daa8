package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/vendara/marketplace/internal/domain/errors"
	"github.com/vendara/marketplace/internal/domain/model"
	"github.com/vendara/marketplace/internal/server/http/dto"
	"github.com/vendara/marketplace/internal/usecase"
)

type facadeStub struct {
	changeFn func(context.Context, uuid.UUID, string, string, string) (*usecase.StatusChangeResult, error)
	cancelFn func(context.Context, string, string, string) (*usecase.CancelResult, error)
	statusFn func(context.Context, uuid.UUID) (*usecase.Resolution, error)
	splitFn  func(context.Context, uuid.UUID) ([]model.OrderPart, error)
}

func (s facadeStub) ChangeStatus(ctx context.Context, partID uuid.UUID, status, actor, reason string) (*usecase.StatusChangeResult, error) {
	return s.changeFn(ctx, partID, status, actor, reason)
}

func (s facadeStub) Cancel(ctx context.Context, identifier, email, reason string) (*usecase.CancelResult, error) {
	return s.cancelFn(ctx, identifier, email, reason)
}

func (s facadeStub) Status(ctx context.Context, orderID uuid.UUID) (*usecase.Resolution, error) {
	return s.statusFn(ctx, orderID)
}

func (s facadeStub) Split(ctx context.Context, rootID uuid.UUID) ([]model.OrderPart, error) {
	return s.splitFn(ctx, rootID)
}

func newTestRouter(facade MarketplaceFacade) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewOrderHandler(facade)
	orders := engine.Group("/api/orders")
	orders.POST("/cancel", h.Cancel)
	orders.GET("/:id/status", h.Status)
	orders.POST("/:id/status", h.ChangeStatus)
	orders.POST("/:id/split", h.Split)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestChangeStatusSuccess(t *testing.T) {
	id := uuid.New()
	engine := newTestRouter(facadeStub{
		changeFn: func(_ context.Context, partID uuid.UUID, status, actor, reason string) (*usecase.StatusChangeResult, error) {
			if partID != id || status != "shipped" || actor != "vendor" {
				t.Fatalf("unexpected arguments: %s %s %s", partID, status, actor)
			}
			return &usecase.StatusChangeResult{Previous: model.StatusProcessing, New: model.StatusShipped}, nil
		},
	})

	rec := doJSON(t, engine, http.MethodPost, "/api/orders/"+id.String()+"/status",
		dto.StatusChangeRequest{Status: "shipped", Actor: "vendor"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.StatusChangeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Previous != "processing" || resp.Status != "shipped" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestChangeStatusInvalidID(t *testing.T) {
	engine := newTestRouter(facadeStub{})
	rec := doJSON(t, engine, http.MethodPost, "/api/orders/not-a-uuid/status",
		dto.StatusChangeRequest{Status: "shipped", Actor: "vendor"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChangeStatusRejectedTransition(t *testing.T) {
	engine := newTestRouter(facadeStub{
		changeFn: func(context.Context, uuid.UUID, string, string, string) (*usecase.StatusChangeResult, error) {
			return nil, &usecase.TransitionError{
				Current:   model.StatusPlaced,
				Requested: model.StatusDelivered,
				Allowed:   []model.OrderStatus{model.StatusProcessing, model.StatusCancelled},
				Reason:    "transition not permitted",
			}
		},
	})

	rec := doJSON(t, engine, http.MethodPost, "/api/orders/"+uuid.NewString()+"/status",
		dto.StatusChangeRequest{Status: "delivered", Actor: "vendor"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Allowed) != 2 || resp.Allowed[0] != "processing" {
		t.Fatalf("allowed statuses not surfaced: %+v", resp)
	}
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	engine := newTestRouter(facadeStub{
		changeFn: func(context.Context, uuid.UUID, string, string, string) (*usecase.StatusChangeResult, error) {
			return nil, domainErrors.ErrUnknownStatus
		},
	})
	rec := doJSON(t, engine, http.MethodPost, "/api/orders/"+uuid.NewString()+"/status",
		dto.StatusChangeRequest{Status: "returned", Actor: "vendor"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCancelForbiddenForStranger(t *testing.T) {
	engine := newTestRouter(facadeStub{
		cancelFn: func(context.Context, string, string, string) (*usecase.CancelResult, error) {
			return nil, domainErrors.ErrNotOwner
		},
	})
	rec := doJSON(t, engine, http.MethodPost, "/api/orders/cancel",
		dto.CancelRequest{Order: "ORD-1", Email: "intruder@example.com"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCancelSuccess(t *testing.T) {
	engine := newTestRouter(facadeStub{
		cancelFn: func(_ context.Context, identifier, email, reason string) (*usecase.CancelResult, error) {
			if identifier != "ORD-1" || email != "buyer@example.com" {
				t.Fatalf("unexpected arguments: %s %s", identifier, email)
			}
			return &usecase.CancelResult{NewStatus: model.StatusCancelledByCustomer, CommissionReversed: true}, nil
		},
	})
	rec := doJSON(t, engine, http.MethodPost, "/api/orders/cancel",
		dto.CancelRequest{Order: "ORD-1", Email: "buyer@example.com", Reason: "changed my mind"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var resp dto.CancelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "cancelled_by_customer" || !resp.CommissionReversed {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestStatusNotFound(t *testing.T) {
	engine := newTestRouter(facadeStub{
		statusFn: func(context.Context, uuid.UUID) (*usecase.Resolution, error) {
			return nil, domainErrors.ErrNotFound
		},
	})
	rec := doJSON(t, engine, http.MethodGet, "/api/orders/"+uuid.NewString()+"/status", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestStatusSuccess(t *testing.T) {
	engine := newTestRouter(facadeStub{
		statusFn: func(context.Context, uuid.UUID) (*usecase.Resolution, error) {
			return &usecase.Resolution{
				Status:            model.StatusShipped,
				SubStatuses:       []model.OrderStatus{model.StatusShipped, model.StatusDelivered},
				CustomerMayCancel: true,
				AdminMayChange:    true,
			}, nil
		},
	})
	rec := doJSON(t, engine, http.MethodGet, "/api/orders/"+uuid.NewString()+"/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	var resp dto.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "shipped" || len(resp.SubStatuses) != 2 || !resp.CustomerMayCancel {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSplitConflictWhenAlreadySplit(t *testing.T) {
	engine := newTestRouter(facadeStub{
		splitFn: func(context.Context, uuid.UUID) ([]model.OrderPart, error) {
			return nil, domainErrors.ErrOrderAlreadySplit
		},
	})
	rec := doJSON(t, engine, http.MethodPost, "/api/orders/"+uuid.NewString()+"/split", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSplitSuccess(t *testing.T) {
	vendor := uuid.New()
	engine := newTestRouter(facadeStub{
		splitFn: func(context.Context, uuid.UUID) ([]model.OrderPart, error) {
			return []model.OrderPart{
				{Family: model.FamilyOrder, ID: uuid.New(), Number: "ORD-1-admin", Status: model.StatusPlaced, TotalAmount: decimal.RequireFromString("10.00")},
				{Family: model.FamilyVendorOrder, ID: uuid.New(), VendorID: &vendor, Number: "ORD-1", Status: model.StatusPlaced, TotalAmount: decimal.RequireFromString("50.00"), CommissionAmount: decimal.RequireFromString("5.00")},
			}, nil
		},
	})
	rec := doJSON(t, engine, http.MethodPost, "/api/orders/"+uuid.NewString()+"/split", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.SplitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(resp.Parts))
	}
	if resp.Parts[1].VendorID == nil || resp.Parts[1].CommissionAmount != "5.00" {
		t.Fatalf("vendor part not serialized: %+v", resp.Parts[1])
	}
}
