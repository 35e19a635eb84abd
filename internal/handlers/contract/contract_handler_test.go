package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contracts-service/internal/domain/contract"
	xerrors "contracts-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

type stubService struct {
	created  *contract.CreateContractRequest
	days     int
	receipt  string
	err      error
	expiring []contract.ExpiringContract
}

func (s *stubService) CreateContract(_ context.Context, req *contract.CreateContractRequest) (*contract.ContractAggregate, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	agg := contract.NewAggregate(req.ClientID, req.CoachID, req.StartDate, req.BaseDurationMonths)
	return &agg, nil
}

func (s *stubService) GetContract(_ context.Context, clientID string) (*contract.ContractAggregate, error) {
	if s.err != nil {
		return nil, s.err
	}
	agg := contract.NewAggregate(clientID, "", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 3)
	return &agg, nil
}

func (s *stubService) UpdateSchedule(_ context.Context, clientID string, _ *contract.UpdateScheduleRequest) (*contract.ContractAggregate, error) {
	return s.GetContract(context.Background(), clientID)
}

func (s *stubService) StageRenewal(_ context.Context, clientID string, _ *contract.StageRenewalRequest) (*contract.ContractAggregate, error) {
	return s.GetContract(context.Background(), clientID)
}

func (s *stubService) AttachReceipt(_ context.Context, clientID, receiptRef string) (*contract.ContractAggregate, error) {
	s.receipt = receiptRef
	return s.GetContract(context.Background(), clientID)
}

func (s *stubService) SignContract(_ context.Context, clientID, _ string) (*contract.ContractAggregate, error) {
	return s.GetContract(context.Background(), clientID)
}

func (s *stubService) ListExpiring(_ context.Context, days int) ([]contract.ExpiringContract, error) {
	s.days = days
	return s.expiring, s.err
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewContractHandler(svc)
	r.POST("/contracts", h.CreateContract)
	r.GET("/contracts/expiring", h.ListExpiring)
	r.GET("/contracts/:client_id", h.GetContract)
	r.PUT("/contracts/:client_id/schedule", h.UpdateSchedule)
	r.POST("/contracts/:client_id/renewal/receipt", h.AttachReceipt)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateContract(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	body := `{"client_id":"6f1c2d8e-3a4b-4c5d-9e0f-112233445566","coach_id":"coach-1","start_date":"2024-01-01T00:00:00Z","base_duration_months":3}`
	w := do(r, http.MethodPost, "/contracts", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.created == nil || svc.created.BaseDurationMonths != 3 || svc.created.CoachID != "coach-1" {
		t.Fatalf("request not forwarded: %+v", svc.created)
	}
}

func TestCreateContractBindingErrors(t *testing.T) {
	r := newRouter(&stubService{})

	cases := map[string]string{
		"not json":      `{`,
		"bad uuid":      `{"client_id":"abc","start_date":"2024-01-01T00:00:00Z","base_duration_months":3}`,
		"zero duration": `{"client_id":"6f1c2d8e-3a4b-4c5d-9e0f-112233445566","start_date":"2024-01-01T00:00:00Z","base_duration_months":0}`,
	}
	for name, body := range cases {
		if w := do(r, http.MethodPost, "/contracts", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", name, w.Code)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{xerrors.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: operation in progress", xerrors.ErrConflict), http.StatusConflict},
		{xerrors.NewStorage("load contract", fmt.Errorf("timeout")), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		r := newRouter(&stubService{err: tc.err})
		if w := do(r, http.MethodGet, "/contracts/c1", ""); w.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestUpdateScheduleRejectsBadPhase(t *testing.T) {
	r := newRouter(&stubService{})
	w := do(r, http.MethodPut, "/contracts/c1/schedule", `{"phases":[{"phase":7,"duration_months":3}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAttachReceiptRequiresRef(t *testing.T) {
	svc := &stubService{}
	r := newRouter(svc)

	if w := do(r, http.MethodPost, "/contracts/c1/renewal/receipt", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/contracts/c1/renewal/receipt", `{"receipt_ref":"drive://r1"}`); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.receipt != "drive://r1" {
		t.Fatalf("receipt = %q", svc.receipt)
	}
}

func TestListExpiring(t *testing.T) {
	svc := &stubService{expiring: []contract.ExpiringContract{{ClientID: "c1", DaysRemaining: 10}}}
	r := newRouter(svc)

	w := do(r, http.MethodGet, "/contracts/expiring?days=15", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.days != 15 {
		t.Fatalf("days = %d", svc.days)
	}
	var body struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Total != 1 {
		t.Fatalf("total = %d", body.Data.Total)
	}

	if w := do(r, http.MethodGet, "/contracts/expiring?days=soon", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric days: status = %d", w.Code)
	}
}
