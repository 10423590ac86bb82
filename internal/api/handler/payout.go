package handler

import (
	"context"
	"net/http"

	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/ayo6706/merchant-gateway/internal/models"
	"github.com/ayo6706/merchant-gateway/internal/payout"
	"github.com/ayo6706/merchant-gateway/internal/service"
	"github.com/ayo6706/merchant-gateway/internal/session"
)

// PayoutHandler handles HTTP requests for payout flows.
type PayoutHandler struct {
	svc *service.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler instance.
func NewPayoutHandler(svc *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{svc: svc}
}

type payoutOptions struct {
	Banks        []models.Bank `json:"banks"`
	QuickAmounts []int64       `json:"quick_amounts"`
	Fee          string        `json:"fee"`
}

type startPayoutResponse struct {
	Flow    models.FlowRef  `json:"flow"`
	State   payout.Snapshot `json:"state"`
	Options payoutOptions   `json:"options"`
}

// Start handles POST /v1/payouts.
func (h *PayoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	ref := h.svc.Start(sess)
	f, err := h.svc.Flow(sess, ref.ID)
	if err != nil {
		respondFlowError(w, r, err, nil)
		return
	}
	w.Header().Set("Location", "/v1/payouts/"+ref.ID.String())
	RespondJSON(w, http.StatusCreated, startPayoutResponse{
		Flow:  ref,
		State: f.Snapshot(),
		Options: payoutOptions{
			Banks:        h.svc.Banks(""),
			QuickAmounts: payout.QuickAmounts,
			Fee:          domain.PayoutFee.DisplayFixed(),
		},
	})
}

// Get handles GET /v1/payouts/{id}.
func (h *PayoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, nil)
}

// Close handles DELETE /v1/payouts/{id}.
func (h *PayoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess, ok := requestSession(w, r)
	if !ok {
		return
	}
	id, ok := flowID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Close(sess, id); err != nil {
		respondFlowError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectBank handles PUT /v1/payouts/{id}/bank and waits for the name
// enquiry it may trigger.
func (h *PayoutHandler) SelectBank(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(ctx context.Context, f *payout.Flow) error {
		if err := f.SelectBank(req.Code); err != nil {
			return err
		}
		_ = f.AwaitResolution(ctx)
		return nil
	})
}

// SetAccount handles PUT /v1/payouts/{id}/account and waits for the name
// enquiry it may trigger.
func (h *PayoutHandler) SetAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountNumber string `json:"account_number"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(ctx context.Context, f *payout.Flow) error {
		if err := f.SetAccountNumber(req.AccountNumber); err != nil {
			return err
		}
		_ = f.AwaitResolution(ctx)
		return nil
	})
}

// SetAmount handles PUT /v1/payouts/{id}/amount.
func (h *PayoutHandler) SetAmount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(_ context.Context, f *payout.Flow) error {
		return f.SetAmount(req.Amount)
	})
}

// SetNarration handles PUT /v1/payouts/{id}/narration.
func (h *PayoutHandler) SetNarration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Narration string `json:"narration"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(_ context.Context, f *payout.Flow) error {
		return f.SetNarration(req.Narration)
	})
}

// Continue handles POST /v1/payouts/{id}/continue.
func (h *PayoutHandler) Continue(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, f *payout.Flow) error {
		return f.Continue()
	})
}

// Back handles POST /v1/payouts/{id}/back.
func (h *PayoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, f *payout.Flow) error {
		return f.Back()
	})
}

// PressKey handles POST /v1/payouts/{id}/keys. The fourth digit waits for
// PIN verification before responding.
func (h *PayoutHandler) PressKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.apply(w, r, func(ctx context.Context, f *payout.Flow) error {
		if err := f.PressKey(req.Key); err != nil {
			return err
		}
		_ = f.AwaitVerification(ctx)
		return nil
	})
}

// Reset handles POST /v1/payouts/{id}/reset ("New Transfer").
func (h *PayoutHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, f *payout.Flow) error {
		return f.Reset()
	})
}

// Banks handles GET /v1/banks?q=.
func (h *PayoutHandler) Banks(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.svc.Banks(r.URL.Query().Get("q")))
}

// apply resolves the session's flow, runs op and responds with the
// resulting snapshot.
func (h *PayoutHandler) apply(w http.ResponseWriter, r *http.Request, op func(context.Context, *payout.Flow) error) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "auth/session-required", "Session required")
		return
	}
	id, ok := flowID(w, r)
	if !ok {
		return
	}
	f, err := h.svc.Flow(sess, id)
	if err != nil {
		respondFlowError(w, r, err, nil)
		return
	}
	if op != nil {
		if err := op(r.Context(), f); err != nil {
			respondFlowError(w, r, err, f.Snapshot())
			return
		}
	}
	RespondJSON(w, http.StatusOK, f.Snapshot())
}
