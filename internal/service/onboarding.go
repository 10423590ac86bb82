package service

import (
	"context"
	"errors"

	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/ayo6706/merchant-gateway/internal/events"
	"github.com/ayo6706/merchant-gateway/internal/flows"
	"github.com/ayo6706/merchant-gateway/internal/models"
	"github.com/ayo6706/merchant-gateway/internal/onboarding"
	"github.com/ayo6706/merchant-gateway/internal/upload"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OnboardingService manages anonymous onboarding wizards. Each wizard is
// owned by the flow token handed out when it was started.
type OnboardingService struct {
	registry  *flows.Registry[*onboarding.Wizard]
	preparer  onboarding.ImagePreparer
	submitter onboarding.Submitter
	publisher events.Publisher
	logger    *zap.Logger
}

func NewOnboardingService(registry *flows.Registry[*onboarding.Wizard], preparer onboarding.ImagePreparer, submitter onboarding.Submitter, publisher events.Publisher, logger *zap.Logger) *OnboardingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OnboardingService{
		registry:  registry,
		preparer:  preparer,
		submitter: submitter,
		publisher: publisher,
		logger:    logger,
	}
}

// Start opens a wizard and returns its reference and owner token.
func (s *OnboardingService) Start() (models.FlowRef, string) {
	owner := uuid.NewString()
	w := onboarding.NewWizard(s.preparer, s.submitter, s.logger)
	id := s.registry.Add(owner, w)
	created, _ := s.registry.CreatedAt(id)
	return models.FlowRef{ID: id, Kind: s.registry.Kind(), CreatedAt: created}, owner
}

// Wizard returns the owner's wizard.
func (s *OnboardingService) Wizard(owner string, id uuid.UUID) (*onboarding.Wizard, error) {
	return s.registry.Get(owner, id)
}

func (s *OnboardingService) SetFields(owner string, id uuid.UUID, values map[string]string) (onboarding.Snapshot, error) {
	w, err := s.registry.Get(owner, id)
	if err != nil {
		return onboarding.Snapshot{}, err
	}
	err = w.SetFields(values)
	return w.Snapshot(), err
}

// SelectDocument validates f against the field's accepted types and size
// limit. A rejected file is reported through the snapshot's document errors.
func (s *OnboardingService) SelectDocument(owner string, id uuid.UUID, field string, f upload.File) (onboarding.Snapshot, error) {
	d, err := onboarding.ParseDocumentField(field)
	if err != nil {
		return onboarding.Snapshot{}, err
	}
	w, err := s.registry.Get(owner, id)
	if err != nil {
		return onboarding.Snapshot{}, err
	}
	err = w.SelectDocument(d, f)
	return w.Snapshot(), err
}

func (s *OnboardingService) ClearDocument(owner string, id uuid.UUID, field string) (onboarding.Snapshot, error) {
	d, err := onboarding.ParseDocumentField(field)
	if err != nil {
		return onboarding.Snapshot{}, err
	}
	w, err := s.registry.Get(owner, id)
	if err != nil {
		return onboarding.Snapshot{}, err
	}
	err = w.ClearDocument(d)
	return w.Snapshot(), err
}

func (s *OnboardingService) Back(owner string, id uuid.UUID) (onboarding.Snapshot, error) {
	w, err := s.registry.Get(owner, id)
	if err != nil {
		return onboarding.Snapshot{}, err
	}
	err = w.Back()
	return w.Snapshot(), err
}

// Next advances the wizard. On the documents step this prepares and submits
// the application and blocks until the backend answers.
func (s *OnboardingService) Next(ctx context.Context, owner string, id uuid.UUID) (onboarding.Snapshot, error) {
	w, err := s.registry.Get(owner, id)
	if err != nil {
		return onboarding.Snapshot{}, err
	}

	before := w.Snapshot()
	err = w.Next(ctx)
	after := w.Snapshot()

	if before.Step == onboarding.StepDocuments && submissionAttempted(err) {
		events.Emit(ctx, s.publisher, domain.EventOnboardingSubmitted, map[string]any{
			"flow_id":  id,
			"email":    before.Values[string(onboarding.FieldEmail)],
			"business": before.Values[string(onboarding.FieldBusinessName)],
		})
	}
	if before.Step != onboarding.StepCompleted && after.Step == onboarding.StepCompleted {
		payload := map[string]any{
			"flow_id":  id,
			"email":    after.Values[string(onboarding.FieldEmail)],
			"business": after.Values[string(onboarding.FieldBusinessName)],
		}
		if after.Result != nil {
			payload["wallet_id"] = after.Result.WalletID
			if after.Result.Data != nil && after.Result.Data.WalletID != "" {
				payload["wallet_id"] = after.Result.Data.WalletID
			}
		}
		events.Emit(ctx, s.publisher, domain.EventOnboardingCompleted, payload)
	}
	return after, err
}

// Close discards the wizard and anything it was doing.
func (s *OnboardingService) Close(owner string, id uuid.UUID) error {
	return s.registry.Remove(owner, id)
}

func submissionAttempted(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, onboarding.ErrValidation),
		errors.Is(err, onboarding.ErrBusy),
		errors.Is(err, onboarding.ErrClosed),
		errors.Is(err, onboarding.ErrDocument),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
