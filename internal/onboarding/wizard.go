package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/observability"
	"github.com/ayo6706/merchant-gateway/internal/upload"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status messages reported while a submission is in flight.
const (
	StatusCompressing = "Compressing images..."
	StatusPreparing   = "Preparing documents..."
	StatusSubmitting  = "Submitting application..."
)

// ImagePreparer downsizes images before upload. Non-images pass through.
type ImagePreparer interface {
	Prepare(ctx context.Context, f upload.File) (upload.File, error)
}

// Submitter sends the assembled registration payload.
type Submitter interface {
	SubmitOnboarding(ctx context.Context, req moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error)
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DocumentInfo describes a selected document without its content.
type DocumentInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Snapshot is a read-only view of the wizard.
type Snapshot struct {
	Step           Step                           `json:"step"`
	Values         map[string]string              `json:"values"`
	Documents      map[DocumentField]DocumentInfo `json:"documents"`
	DocumentErrors map[DocumentField]string       `json:"document_errors,omitempty"`
	Error          string                         `json:"error,omitempty"`
	Status         string                         `json:"status,omitempty"`
	Submitting     bool                           `json:"submitting"`
	Result         *moneybox.OnboardingResponse   `json:"result,omitempty"`
}

// Wizard holds one merchant's onboarding form. It is safe for concurrent
// use; mutations are rejected while a submission is in flight.
type Wizard struct {
	mu         sync.Mutex
	step       Step
	form       Form
	docs       map[DocumentField]upload.File
	docErrors  map[DocumentField]string
	stepErr    string
	status     string
	submitting bool
	closed     bool
	result     *moneybox.OnboardingResponse

	// ctx lives until Close; pending pipeline work derives from it.
	ctx    context.Context
	cancel context.CancelFunc

	preparer  ImagePreparer
	submitter Submitter
	logger    *zap.Logger
}

func NewWizard(preparer ImagePreparer, submitter Submitter, logger *zap.Logger) *Wizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Wizard{
		step:      StepPersonal,
		form:      make(Form),
		docs:      make(map[DocumentField]upload.File),
		docErrors: make(map[DocumentField]string),
		ctx:       ctx,
		cancel:    cancel,
		preparer:  preparer,
		submitter: submitter,
		logger:    logger,
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	docs := make(map[DocumentField]DocumentInfo, len(w.docs))
	for field, f := range w.docs {
		docs[field] = DocumentInfo{Name: f.Name, ContentType: f.ContentType, Size: f.Size}
	}
	var docErrors map[DocumentField]string
	if len(w.docErrors) > 0 {
		docErrors = make(map[DocumentField]string, len(w.docErrors))
		for field, msg := range w.docErrors {
			docErrors[field] = msg
		}
	}
	return Snapshot{
		Step:           w.step,
		Values:         w.form.Public(),
		Documents:      docs,
		DocumentErrors: docErrors,
		Error:          w.stepErr,
		Status:         w.status,
		Submitting:     w.submitting,
		Result:         w.result,
	}
}

// SetFields applies values keyed by wire field name. Unknown names reject
// the whole update.
func (w *Wizard) SetFields(values map[string]string) error {
	parsed := make(map[Field]string, len(values))
	for name, v := range values {
		field, err := ParseField(name)
		if err != nil {
			return err
		}
		parsed[field] = v
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	for field, v := range parsed {
		w.form[field] = v
	}
	return nil
}

// SelectDocument records f for field d after size and type checks. A
// rejected file clears the slot and leaves a field-scoped error; an
// accepted one clears any previous error on that slot.
func (w *Wizard) SelectDocument(d DocumentField, f upload.File) error {
	if _, err := ParseDocumentField(string(d)); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}

	if err := upload.Validate(f, d.Accept()); err != nil {
		delete(w.docs, d)
		w.docErrors[d] = err.Error()
		w.logger.Info("document rejected",
			zap.String("field", string(d)),
			zap.String("name", f.Name),
			zap.Int64("size", f.Size),
			zap.Error(err),
		)
		return err
	}
	w.docs[d] = f
	delete(w.docErrors, d)
	return nil
}

// ClearDocument empties a slot and its error.
func (w *Wizard) ClearDocument(d DocumentField) error {
	if _, err := ParseDocumentField(string(d)); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	delete(w.docs, d)
	delete(w.docErrors, d)
	return nil
}

// Back moves one step back, clearing the step error and keeping values.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.usableLocked(); err != nil {
		return err
	}
	next, err := Transition(w.step, EventBack)
	if err != nil {
		return err
	}
	w.step = next
	w.stepErr = ""
	observability.IncrementOnboardingEvent("back")
	return nil
}

// Next validates the active step and advances. From Documents it runs the
// submission and returns once the backend has answered. Cancelling ctx
// abandons pending preparation work but not a request already sent.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	if err := w.usableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}

	var msg string
	switch w.step {
	case StepPersonal:
		msg = ValidatePersonal(w.form)
	case StepBusiness:
		msg = ValidateBusiness(w.form)
	case StepDocuments:
		msg = ValidateDocuments(w.docs, w.docErrors)
	default:
		_, err := Transition(w.step, EventNext)
		w.mu.Unlock()
		return err
	}

	if msg != "" {
		w.stepErr = msg
		step := w.step
		w.mu.Unlock()
		observability.IncrementOnboardingEvent("validation_failed")
		return &StepError{Step: step, Message: msg, Err: ErrValidation}
	}

	if w.step == StepDocuments {
		return w.submit(ctx)
	}

	next, err := Transition(w.step, EventNext)
	if err == nil {
		w.step = next
		w.stepErr = ""
	}
	w.mu.Unlock()
	if err == nil {
		observability.IncrementOnboardingEvent("step_" + next.String())
	}
	return err
}

// Close tears the wizard down. Pending work is cancelled and the outcome
// of any in-flight submission is discarded.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.docs = nil
	w.cancel()
}

// submit is entered with w.mu held and releases it.
func (w *Wizard) submit(ctx context.Context) error {
	form := w.form.clone()
	docs := make(map[DocumentField]upload.File, len(w.docs))
	for field, f := range w.docs {
		docs[field] = f
	}
	w.submitting = true
	w.stepErr = ""
	w.status = StatusCompressing
	w.mu.Unlock()

	observability.IncrementOnboardingEvent("submitted")
	w.logger.Info("onboarding submission started",
		zap.String("email", form.get(FieldEmail)),
		zap.Int("documents", len(docs)),
	)

	resp, err := w.runPipeline(ctx, form, docs)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	w.status = ""

	if w.closed {
		w.logger.Info("onboarding outcome discarded after close", zap.Error(err))
		return ErrClosed
	}
	return w.applyOutcomeLocked(resp, err)
}

func (w *Wizard) runPipeline(ctx context.Context, form Form, docs map[DocumentField]upload.File) (*moneybox.OnboardingResponse, error) {
	pctx, cancel := context.WithCancel(w.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	prepared, err := w.prepareAll(pctx, docs)
	if err != nil {
		return nil, err
	}

	w.setStatus(StatusPreparing)
	encoded, err := encodeAll(pctx, prepared)
	if err != nil {
		return nil, err
	}

	w.setStatus(StatusSubmitting)
	if err := pctx.Err(); err != nil {
		return nil, fmt.Errorf("onboarding submission cancelled: %w", err)
	}

	// Once sent, the request runs to its own bound regardless of the wizard.
	return w.submitter.SubmitOnboarding(context.WithoutCancel(pctx), buildRequest(form, encoded))
}

func (w *Wizard) prepareAll(ctx context.Context, docs map[DocumentField]upload.File) (map[DocumentField]upload.File, error) {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	out := make(map[DocumentField]upload.File, len(docs))

	for field, f := range docs {
		field, f := field, f
		g.Go(func() error {
			p, err := w.preparer.Prepare(gctx, f)
			if err != nil {
				return &DocumentError{Field: field, Err: err}
			}
			mu.Lock()
			out[field] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeAll(ctx context.Context, docs map[DocumentField]upload.File) (map[DocumentField]string, error) {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	out := make(map[DocumentField]string, len(docs))

	for field, f := range docs {
		field, f := field, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := f.Base64()
			if err != nil {
				return &DocumentError{Field: field, Err: err}
			}
			mu.Lock()
			out[field] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Wizard) applyOutcomeLocked(resp *moneybox.OnboardingResponse, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			observability.IncrementOnboardingEvent("cancelled")
			return err
		}
		w.stepErr = submissionMessage(err)
		switch {
		case errors.Is(err, moneybox.ErrTimeout):
			observability.IncrementOnboardingEvent("timeout")
		case errors.Is(err, ErrDocument):
			observability.IncrementOnboardingEvent("document_error")
		default:
			observability.IncrementOnboardingEvent("failed")
		}
		w.logger.Warn("onboarding submission failed", zap.Error(err))
		return &StepError{Step: w.step, Message: w.stepErr, Err: err}
	}

	if resp.Succeeded() {
		next, terr := Transition(w.step, EventSubmitted)
		if terr != nil {
			return terr
		}
		w.step = next
		w.result = resp
		w.docs = make(map[DocumentField]upload.File)
		w.docErrors = make(map[DocumentField]string)
		delete(w.form, FieldPassword)
		delete(w.form, FieldPIN)
		observability.IncrementOnboardingEvent("completed")
		w.logger.Info("onboarding completed", zap.String("wallet_id", walletID(resp)))
		return nil
	}

	w.stepErr = MsgSubmissionFailed
	if resp != nil && resp.Message != "" {
		w.stepErr = resp.Message
	}
	observability.IncrementOnboardingEvent("rejected")
	return &StepError{Step: w.step, Message: w.stepErr, Err: ErrRejected}
}

func (w *Wizard) setStatus(s string) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

func (w *Wizard) usableLocked() error {
	if w.closed {
		return ErrClosed
	}
	if w.submitting {
		return ErrBusy
	}
	return nil
}

func (w *Wizard) editableLocked() error {
	if err := w.usableLocked(); err != nil {
		return err
	}
	if w.step == StepCompleted {
		return fmt.Errorf("%w: wizard already completed", ErrInvalidTransition)
	}
	return nil
}

func walletID(resp *moneybox.OnboardingResponse) string {
	if resp.WalletID != "" {
		return resp.WalletID
	}
	if resp.Data != nil {
		return resp.Data.WalletID
	}
	return ""
}
