package service

import (
	"context"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/ayo6706/merchant-gateway/internal/events"
	"github.com/ayo6706/merchant-gateway/internal/flows"
	"github.com/ayo6706/merchant-gateway/internal/gateway"
	"github.com/ayo6706/merchant-gateway/internal/models"
	"github.com/ayo6706/merchant-gateway/internal/payout"
	"github.com/ayo6706/merchant-gateway/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PayoutService manages payout flows. Each flow belongs to the session that
// opened it and is closed when that session logs out.
type PayoutService struct {
	registry  *flows.Registry[*payout.Flow]
	enquirer  gateway.NameEnquirer
	verifier  gateway.PINVerifier
	publisher events.Publisher
	pinDelay  time.Duration
	logger    *zap.Logger
}

func NewPayoutService(registry *flows.Registry[*payout.Flow], gw gateway.Gateway, publisher events.Publisher, logger *zap.Logger) *PayoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayoutService{
		registry:  registry,
		enquirer:  gw,
		verifier:  gw,
		publisher: publisher,
		pinDelay:  payout.DefaultPINDelay,
		logger:    logger,
	}
}

// WithPINDelay sets the pause between the fourth PIN digit and verification.
func (s *PayoutService) WithPINDelay(d time.Duration) *PayoutService {
	if d >= 0 {
		s.pinDelay = d
	}
	return s
}

// Start opens a payout flow for sess.
func (s *PayoutService) Start(sess *session.Session) models.FlowRef {
	f := payout.NewFlow(s.enquirer, s.verifier, sess.AccessToken, s.logger).
		WithPINDelay(s.pinDelay).
		WithOnComplete(func(r payout.Receipt) {
			s.logger.Info("payout completed",
				zap.String("session_id", sess.ID),
				zap.String("reference", r.Reference),
				zap.String("bank_code", r.BankCode),
			)
			events.Emit(context.Background(), s.publisher, domain.EventPayoutCompleted, map[string]any{
				"session_id": sess.ID,
				"merchant":   sess.Email,
				"receipt":    r,
			})
		})

	id := s.registry.Add(sess.ID, f)
	created, _ := s.registry.CreatedAt(id)
	return models.FlowRef{ID: id, Kind: s.registry.Kind(), CreatedAt: created}
}

// Flow returns the session's payout flow.
func (s *PayoutService) Flow(sess *session.Session, id uuid.UUID) (*payout.Flow, error) {
	return s.registry.Get(sess.ID, id)
}

func (s *PayoutService) Close(sess *session.Session, id uuid.UUID) error {
	return s.registry.Remove(sess.ID, id)
}

// Banks returns the destination banks matching query.
func (s *PayoutService) Banks(query string) []models.Bank {
	return payout.FilterBanks(query)
}
