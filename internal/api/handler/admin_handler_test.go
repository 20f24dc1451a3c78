package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

type stubSweeper struct {
	queueFn func(ctx context.Context, hdIndex int) (string, error)
}

func (s *stubSweeper) Queue(ctx context.Context, hdIndex int) (string, error) {
	return s.queueFn(ctx, hdIndex)
}

func TestAdminHandler_Sweep(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubSweeper{
		queueFn: func(ctx context.Context, hdIndex int) (string, error) {
			if hdIndex != 12 {
				t.Fatalf("expected hd index 12, got %d", hdIndex)
			}
			return "cafebabe", nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := authed(e, req, rec, "admin1", domain.RoleAdmin)
	c.SetParamNames("hd_index")
	c.SetParamValues("12")

	if err := h.Sweep(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp sweepResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp != (sweepResponse{HDIndex: 12, TxID: "cafebabe"}) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAdminHandler_Sweep_BadIndex(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubSweeper{
		queueFn: func(ctx context.Context, hdIndex int) (string, error) {
			t.Fatalf("sweeper must not be called")
			return "", nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := authed(e, req, rec, "admin1", domain.RoleAdmin)
	c.SetParamNames("hd_index")
	c.SetParamValues("abc")

	if err := h.Sweep(c); !errors.Is(err, domain.ErrDerivation) {
		t.Fatalf("expected ErrDerivation, got %v", err)
	}
}

func TestAdminHandler_Sweep_InProgress(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubSweeper{
		queueFn: func(ctx context.Context, hdIndex int) (string, error) {
			return "", domain.ErrSweepInProgress
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := authed(e, req, rec, "admin1", domain.RoleAdmin)
	c.SetParamNames("hd_index")
	c.SetParamValues("3")

	if err := h.Sweep(c); !errors.Is(err, domain.ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}
}
