package onboarding

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type preparerFunc func(ctx context.Context, f upload.File) (upload.File, error)

func (fn preparerFunc) Prepare(ctx context.Context, f upload.File) (upload.File, error) {
	return fn(ctx, f)
}

type submitterFunc func(ctx context.Context, req moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error)

func (fn submitterFunc) SubmitOnboarding(ctx context.Context, req moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error) {
	return fn(ctx, req)
}

// recordingPreparer passes files through and records their names.
type recordingPreparer struct {
	mu    sync.Mutex
	names []string
}

func (p *recordingPreparer) Prepare(_ context.Context, f upload.File) (upload.File, error) {
	p.mu.Lock()
	p.names = append(p.names, f.Name)
	p.mu.Unlock()
	return f, nil
}

func okSubmitter(got *moneybox.OnboardingRequest) Submitter {
	return submitterFunc(func(_ context.Context, req moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error) {
		if got != nil {
			*got = req
		}
		return &moneybox.OnboardingResponse{WalletID: "W-100"}, nil
	})
}

func pdf(name string) upload.File {
	return upload.File{Name: name, ContentType: "application/pdf", Size: 4, Data: []byte("%PDF")}
}

func jpg(name string) upload.File {
	return upload.File{Name: name, ContentType: "image/jpeg", Size: 3, Data: []byte{0xff, 0xd8, 0xff}}
}

func validPersonalValues() map[string]string {
	return map[string]string{
		"firstName":    "Ada",
		"lastName":     "Lovelace",
		"mobileNumber": "+2348000000000",
		"email":        "ada@x.com",
		"password":     "p@ss",
		"bvn":          "12345678901",
		"address":      "1 Main St",
		"city":         "Lagos",
		"dob":          "1990-01-01",
		"pin":          "1234",
	}
}

func businessValues() map[string]string {
	return map[string]string{
		"bName":     "Ada Stores",
		"bType":     "Sole Proprietorship",
		"cacNo":     "RC 123456",
		"BCategory": "Retail",
	}
}

// documentsWizard returns a wizard parked on the Documents step with every
// required document selected.
func documentsWizard(t *testing.T, prep ImagePreparer, sub Submitter) *Wizard {
	t.Helper()
	w := NewWizard(prep, sub, nil)
	require.NoError(t, w.SetFields(validPersonalValues()))
	require.NoError(t, w.Next(context.Background()))
	require.NoError(t, w.SetFields(businessValues()))
	require.NoError(t, w.Next(context.Background()))
	require.Equal(t, StepDocuments, w.Step())

	require.NoError(t, w.SelectDocument(DocCAC, pdf("cac.pdf")))
	require.NoError(t, w.SelectDocument(DocGovtID, jpg("id.jpg")))
	require.NoError(t, w.SelectDocument(DocUtilityBill, pdf("bill.pdf")))
	require.NoError(t, w.SelectDocument(DocBizPhoto, jpg("shop.jpg")))
	return w
}

func TestWizard_PersonalAdvancesToBusiness(t *testing.T) {
	w := NewWizard(&recordingPreparer{}, okSubmitter(nil), nil)
	require.NoError(t, w.SetFields(validPersonalValues()))

	require.NoError(t, w.Next(context.Background()))
	assert.Equal(t, StepBusiness, w.Step())
	assert.Empty(t, w.Snapshot().Error)
}

func TestWizard_ShortPINBlocks(t *testing.T) {
	w := NewWizard(&recordingPreparer{}, okSubmitter(nil), nil)
	values := validPersonalValues()
	values["pin"] = "123"
	require.NoError(t, w.SetFields(values))

	err := w.Next(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, MsgPINFormat, err.Error())
	assert.Equal(t, StepPersonal, w.Step())
	assert.Equal(t, MsgPINFormat, w.Snapshot().Error)
}

func TestWizard_BackPreservesValuesAndClearsError(t *testing.T) {
	w := NewWizard(&recordingPreparer{}, okSubmitter(nil), nil)
	require.NoError(t, w.SetFields(validPersonalValues()))
	require.NoError(t, w.Next(context.Background()))

	require.Error(t, w.Next(context.Background()))
	assert.Equal(t, MsgBusinessRequired, w.Snapshot().Error)

	require.NoError(t, w.Back())
	snap := w.Snapshot()
	assert.Equal(t, StepPersonal, snap.Step)
	assert.Empty(t, snap.Error)
	assert.Equal(t, "Ada", snap.Values["firstName"])
	assert.Equal(t, "****", snap.Values["pin"])

	// Back on the first step is a no-op.
	require.NoError(t, w.Back())
	assert.Equal(t, StepPersonal, w.Step())
}

func TestWizard_UnknownFieldRejectsWholeUpdate(t *testing.T) {
	w := NewWizard(&recordingPreparer{}, okSubmitter(nil), nil)
	err := w.SetFields(map[string]string{"firstName": "Ada", "nin": "1"})
	require.ErrorIs(t, err, ErrUnknownField)
	assert.Empty(t, w.Snapshot().Values["firstName"])
}

func TestWizard_OversizeDocument(t *testing.T) {
	w := documentsWizard(t, &recordingPreparer{}, okSubmitter(nil))

	big := upload.File{Name: "cac.pdf", ContentType: "application/pdf", Size: 26 * 1024 * 1024}
	err := w.SelectDocument(DocCAC, big)
	require.Error(t, err)
	assert.ErrorIs(t, err, upload.ErrTooLarge)

	snap := w.Snapshot()
	assert.Equal(t, "File is too large (26MB). Maximum size is 25MB.", snap.DocumentErrors[DocCAC])
	assert.NotContains(t, snap.Documents, DocCAC)

	err = w.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgDocumentErrors, err.Error())
	assert.Equal(t, StepDocuments, w.Step())
}

func TestWizard_WrongTypeThenValidSelectionClearsError(t *testing.T) {
	w := documentsWizard(t, &recordingPreparer{}, okSubmitter(nil))

	err := w.SelectDocument(DocUtilityBill, upload.File{Name: "bill.docx", ContentType: "application/msword", Size: 10})
	require.ErrorIs(t, err, upload.ErrInvalidType)
	assert.Equal(t, "Invalid file type. Accepted: .pdf, .jpg, .jpeg, .png", w.Snapshot().DocumentErrors[DocUtilityBill])

	require.NoError(t, w.SelectDocument(DocUtilityBill, pdf("bill.pdf")))
	snap := w.Snapshot()
	assert.NotContains(t, snap.DocumentErrors, DocUtilityBill)
	assert.Contains(t, snap.Documents, DocUtilityBill)
}

func TestWizard_MissingDocumentBlocks(t *testing.T) {
	w := documentsWizard(t, &recordingPreparer{}, okSubmitter(nil))
	require.NoError(t, w.ClearDocument(DocGovtID))

	err := w.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgDocumentsMissing, err.Error())
}

func TestWizard_SubmitSuccess(t *testing.T) {
	prep := &recordingPreparer{}
	var sent moneybox.OnboardingRequest
	w := documentsWizard(t, prep, okSubmitter(&sent))
	require.NoError(t, w.SelectDocument(DocSelfie, jpg("me.jpg")))

	require.NoError(t, w.Next(context.Background()))

	assert.ElementsMatch(t, []string{"cac.pdf", "id.jpg", "bill.pdf", "shop.jpg", "me.jpg"}, prep.names)
	assert.Equal(t, "Ada Stores", sent.BusinessName)
	assert.Equal(t, "Retail", sent.BusinessCategory)
	assert.Equal(t, "1234", sent.PIN)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF")), sent.CACDoc)
	assert.NotEmpty(t, sent.Selfie)

	snap := w.Snapshot()
	assert.Equal(t, StepCompleted, snap.Step)
	assert.Empty(t, snap.Documents)
	assert.Equal(t, "W-100", snap.Result.WalletID)
	assert.NotContains(t, snap.Values, "password")

	err := w.Next(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)
}

func TestWizard_SubmitOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		resp    *moneybox.OnboardingResponse
		err     error
		wantMsg string
		wantIs  error
	}{
		{
			name:    "message_without_success",
			resp:    &moneybox.OnboardingResponse{Message: "BVN already registered"},
			wantMsg: "BVN already registered",
			wantIs:  ErrRejected,
		},
		{
			name:    "empty_response",
			resp:    &moneybox.OnboardingResponse{},
			wantMsg: MsgSubmissionFailed,
			wantIs:  ErrRejected,
		},
		{
			name:    "timeout",
			err:     &moneybox.TimeoutError{Op: "register", After: time.Minute, Message: moneybox.OnboardingTimeoutMessage},
			wantMsg: "Request timed out after 60 seconds. Please try again.",
			wantIs:  moneybox.ErrTimeout,
		},
		{
			name: "missing_fields_in_body",
			err: &moneybox.APIError{Status: 400, Message: "validation failed", Body: map[string]any{
				"missingFields": []any{"bvn", "dob"},
			}},
			wantMsg: "Missing required fields: bvn, dob",
		},
		{
			name:    "missing_fields_in_json_message",
			err:     errors.New(`{"missing_fields":["cacNo"]}`),
			wantMsg: "Missing required fields: cacNo",
		},
		{
			name:    "raw_message",
			err:     &moneybox.APIError{Status: 500, Message: "HTTP 500", Body: map[string]any{}},
			wantMsg: "HTTP 500",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			sub := submitterFunc(func(context.Context, moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error) {
				return tc.resp, tc.err
			})
			w := documentsWizard(t, &recordingPreparer{}, sub)

			err := w.Next(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.wantMsg, err.Error())
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}

			snap := w.Snapshot()
			assert.Equal(t, StepDocuments, snap.Step)
			assert.Equal(t, tc.wantMsg, snap.Error)
			assert.False(t, snap.Submitting)
			assert.Len(t, snap.Documents, 4)
		})
	}
}

func TestWizard_PreparationFailureNamesDocument(t *testing.T) {
	prep := preparerFunc(func(_ context.Context, f upload.File) (upload.File, error) {
		if f.Name == "shop.jpg" {
			return upload.File{}, errors.New("unexpected EOF")
		}
		return f, nil
	})
	called := false
	sub := submitterFunc(func(context.Context, moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error) {
		called = true
		return nil, nil
	})
	w := documentsWizard(t, prep, sub)

	err := w.Next(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDocument)
	assert.Equal(t, "Could not process Business/Location Photo: unexpected EOF", err.Error())
	assert.False(t, called)
}

func TestWizard_CallerCancellationAbandonsPreparation(t *testing.T) {
	prep := preparerFunc(func(ctx context.Context, f upload.File) (upload.File, error) {
		<-ctx.Done()
		return upload.File{}, ctx.Err()
	})
	called := false
	sub := submitterFunc(func(context.Context, moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error) {
		called = true
		return nil, nil
	})
	w := documentsWizard(t, prep, sub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Next(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	snap := w.Snapshot()
	assert.Equal(t, StepDocuments, snap.Step)
	assert.False(t, snap.Submitting)
	assert.Empty(t, snap.Error)
}

func TestWizard_CloseDuringSubmissionDiscardsOutcome(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var sentCtx context.Context
	sub := submitterFunc(func(ctx context.Context, _ moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error) {
		sentCtx = ctx
		close(started)
		<-release
		return &moneybox.OnboardingResponse{WalletID: "W-1"}, nil
	})
	w := documentsWizard(t, &recordingPreparer{}, sub)

	done := make(chan error, 1)
	go func() { done <- w.Next(context.Background()) }()
	<-started

	snap := w.Snapshot()
	assert.True(t, snap.Submitting)
	assert.Equal(t, StatusSubmitting, snap.Status)
	assert.ErrorIs(t, w.SetFields(map[string]string{"city": "Abuja"}), ErrBusy)
	assert.ErrorIs(t, w.Back(), ErrBusy)

	w.Close()
	// The request already sent is not cancelled by the teardown.
	assert.NoError(t, sentCtx.Err())
	close(release)

	err := <-done
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.Next(context.Background()), ErrClosed)
}
