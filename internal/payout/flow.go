package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/ayo6706/merchant-gateway/internal/gateway"
	"github.com/ayo6706/merchant-gateway/internal/models"
	"github.com/ayo6706/merchant-gateway/internal/observability"
	"go.uber.org/zap"
)

const (
	AccountNumberLength = 10
	PINLength           = 4
	DefaultPINDelay     = 300 * time.Millisecond

	KeyDelete = "del"

	MsgResolveFailed = "Unable to resolve account name. Please try again."
	MsgIncorrectPIN  = "Incorrect PIN. Please try again."
	MsgVerifyFailed  = "Unable to verify PIN. Please try again."
)

// QuickAmounts are the one-tap amount shortcuts, in naira.
var QuickAmounts = []int64{5_000, 10_000, 50_000, 100_000}

var (
	ErrNameNotResolved = errors.New("account name not resolved")
	ErrAmountRequired  = errors.New("amount is required")
	ErrUnknownBank     = errors.New("unknown bank")
	ErrInvalidKey      = errors.New("invalid keypad key")
	ErrBusy            = errors.New("pin verification in progress")
	ErrClosed          = errors.New("payout flow closed")
)

// Receipt is the recap of a completed transfer.
type Receipt struct {
	Reference     string    `json:"reference"`
	BankName      string    `json:"bank_name"`
	BankCode      string    `json:"bank_code"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	Amount        string    `json:"amount"`
	Narration     string    `json:"narration,omitempty"`
	Fee           string    `json:"fee"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Snapshot is a read-only view of the flow. The PIN itself is never exposed.
type Snapshot struct {
	State         State        `json:"state"`
	Bank          *models.Bank `json:"bank,omitempty"`
	AccountNumber string       `json:"account_number"`
	AccountName   string       `json:"account_name,omitempty"`
	Resolving     bool         `json:"resolving"`
	ResolveError  string       `json:"resolve_error,omitempty"`
	Amount        string       `json:"amount"`
	AmountDisplay string       `json:"amount_display,omitempty"`
	Narration     string       `json:"narration,omitempty"`
	Fee           string       `json:"fee"`
	PINLength     int          `json:"pin_length"`
	Verifying     bool         `json:"verifying"`
	PINError      string       `json:"pin_error,omitempty"`
	Receipt       *Receipt     `json:"receipt,omitempty"`
}

// Flow is one merchant's payout screen. It is safe for concurrent use.
type Flow struct {
	mu    sync.Mutex
	state State

	bank          *models.Bank
	accountNumber string
	accountName   string
	resolveErr    string
	resolveSeq    uint64
	resolveDone   chan struct{}
	resolveCancel context.CancelFunc

	amount    string
	narration string

	pin        string
	pinErr     string
	verifyDone chan struct{}

	receipt *Receipt
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc

	enquirer    gateway.NameEnquirer
	verifier    gateway.PINVerifier
	accessToken string
	pinDelay    time.Duration
	now         func() time.Time
	onComplete  func(Receipt)
	logger      *zap.Logger
}

// NewFlow creates a flow in the Form state. accessToken identifies the
// merchant to the PIN verifier.
func NewFlow(enquirer gateway.NameEnquirer, verifier gateway.PINVerifier, accessToken string, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Flow{
		state:       StateForm,
		ctx:         ctx,
		cancel:      cancel,
		enquirer:    enquirer,
		verifier:    verifier,
		accessToken: accessToken,
		pinDelay:    DefaultPINDelay,
		now:         time.Now,
		logger:      logger,
	}
}

// WithPINDelay sets the pause between the fourth digit and verification.
func (f *Flow) WithPINDelay(d time.Duration) *Flow {
	if d >= 0 {
		f.pinDelay = d
	}
	return f
}

func (f *Flow) WithClock(now func() time.Time) *Flow {
	f.now = now
	return f
}

// WithOnComplete registers a callback invoked once per completed transfer.
func (f *Flow) WithOnComplete(fn func(Receipt)) *Flow {
	f.onComplete = fn
	return f
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := Snapshot{
		State:         f.state,
		AccountNumber: f.accountNumber,
		AccountName:   f.accountName,
		Resolving:     f.resolveDone != nil && !isClosed(f.resolveDone),
		ResolveError:  f.resolveErr,
		Amount:        f.amount,
		Narration:     f.narration,
		Fee:           domain.PayoutFee.DisplayFixed(),
		PINLength:     len(f.pin),
		Verifying:     f.verifyDone != nil && !isClosed(f.verifyDone),
		PINError:      f.pinErr,
		Receipt:       f.receipt,
	}
	if f.bank != nil {
		b := *f.bank
		snap.Bank = &b
	}
	if f.amount != "" {
		snap.AmountDisplay = amountMoney(f.amount).Display()
	}
	return snap
}

// SelectBank sets the destination bank. Changing the bank clears the
// resolved name and re-runs the enquiry for a complete account number.
// Picking the same bank again retries a failed enquiry.
func (f *Flow) SelectBank(code string) error {
	bank, ok := BankByCode(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBank, code)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	if f.bank != nil && f.bank.Code == bank.Code && f.resolveErr == "" {
		return nil
	}
	f.bank = &bank
	f.startResolutionLocked()
	return nil
}

// SetAccountNumber keeps the first ten digits of raw. Any change clears the
// resolved name; a complete number with a bank selected starts an enquiry.
// Re-entering the same number retries a failed enquiry.
func (f *Flow) SetAccountNumber(raw string) error {
	digits := digitsOnly(raw)
	if len(digits) > AccountNumberLength {
		digits = digits[:AccountNumberLength]
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	if digits == f.accountNumber && f.resolveErr == "" {
		return nil
	}
	f.accountNumber = digits
	f.startResolutionLocked()
	return nil
}

// SetAmount keeps only the digits of raw.
func (f *Flow) SetAmount(raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	f.amount = digitsOnly(raw)
	return nil
}

func (f *Flow) SetNarration(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	f.narration = strings.TrimSpace(s)
	return nil
}

// AwaitResolution blocks until the current enquiry, if any, has settled.
func (f *Flow) AwaitResolution(ctx context.Context) error {
	f.mu.Lock()
	done := f.resolveDone
	f.mu.Unlock()
	return wait(ctx, done)
}

// Continue advances Form to Confirm once a name is resolved and an amount
// entered, and Confirm to Pin unconditionally.
func (f *Flow) Continue() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.state == StateForm {
		if f.accountName == "" {
			return ErrNameNotResolved
		}
		if strings.TrimLeft(f.amount, "0") == "" {
			return ErrAmountRequired
		}
	}
	return f.transitionLocked(EventContinue)
}

// Back returns from Confirm to Form.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	return f.transitionLocked(EventBack)
}

// PressKey applies a keypad press on the Pin screen: a digit appends, "del"
// removes the last digit. The fourth digit schedules verification after
// the configured delay; only a verified PIN reaches Success.
func (f *Flow) PressKey(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.state != StatePin {
		return fmt.Errorf("%w: keypad on %s", ErrInvalidTransition, f.state)
	}
	if f.verifyDone != nil && !isClosed(f.verifyDone) {
		return ErrBusy
	}

	switch {
	case key == KeyDelete:
		if n := len(f.pin); n > 0 {
			f.pin = f.pin[:n-1]
		}
		return nil
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	if len(f.pin) >= PINLength {
		return nil
	}
	f.pin += key
	f.pinErr = ""
	if len(f.pin) == PINLength {
		f.startVerificationLocked()
	}
	return nil
}

// AwaitVerification blocks until a scheduled PIN verification has settled.
func (f *Flow) AwaitVerification(ctx context.Context) error {
	f.mu.Lock()
	done := f.verifyDone
	f.mu.Unlock()
	return wait(ctx, done)
}

// Reset starts a new transfer from Success, clearing every field.
func (f *Flow) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if err := f.transitionLocked(EventReset); err != nil {
		return err
	}
	f.bank = nil
	f.accountNumber = ""
	f.accountName = ""
	f.resolveErr = ""
	f.resolveSeq++
	if f.resolveCancel != nil {
		f.resolveCancel()
		f.resolveCancel = nil
	}
	f.resolveDone = nil
	f.amount = ""
	f.narration = ""
	f.pin = ""
	f.pinErr = ""
	f.verifyDone = nil
	f.receipt = nil
	return nil
}

// Close abandons pending enquiries and verifications. Their results are
// discarded.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.cancel()
}

func (f *Flow) startResolutionLocked() {
	f.resolveSeq++
	seq := f.resolveSeq
	f.accountName = ""
	f.resolveErr = ""
	if f.resolveCancel != nil {
		f.resolveCancel()
		f.resolveCancel = nil
	}
	f.resolveDone = nil

	if f.bank == nil || len(f.accountNumber) != AccountNumberLength {
		return
	}

	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan struct{})
	f.resolveCancel = cancel
	f.resolveDone = done
	bankCode, account := f.bank.Code, f.accountNumber

	go func() {
		defer close(done)
		defer cancel()
		name, err := f.enquirer.ResolveAccountName(ctx, bankCode, account)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.closed || seq != f.resolveSeq {
			return
		}
		if err != nil || strings.TrimSpace(name) == "" {
			f.resolveErr = MsgResolveFailed
			f.logger.Warn("name enquiry failed",
				zap.String("bank_code", bankCode),
				zap.String("account_number", account),
				zap.Error(err),
			)
			return
		}
		f.accountName = strings.TrimSpace(name)
	}()
}

func (f *Flow) startVerificationLocked() {
	done := make(chan struct{})
	f.verifyDone = done
	pin := f.pin
	delay := f.pinDelay

	go func() {
		defer close(done)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-f.ctx.Done():
				return
			}
		}
		ok, err := f.verifier.VerifyPIN(f.ctx, f.accessToken, pin)

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return
		}
		f.pin = ""
		switch {
		case err != nil:
			f.pinErr = MsgVerifyFailed
			f.logger.Warn("pin verification failed", zap.Error(err))
		case !ok:
			f.pinErr = MsgIncorrectPIN
		default:
			if terr := f.transitionLocked(EventPINVerified); terr != nil {
				f.logger.Error("pin verified outside pin state", zap.Error(terr))
				break
			}
			f.receipt = f.receiptLocked()
		}
		receipt := f.receipt
		onComplete := f.onComplete
		success := f.state == StateSuccess && ok && err == nil
		f.mu.Unlock()

		if success && onComplete != nil && receipt != nil {
			onComplete(*receipt)
		}
	}()
}

func (f *Flow) receiptLocked() *Receipt {
	now := f.now()
	r := &Receipt{
		Reference:     NewReference(now),
		AccountNumber: f.accountNumber,
		AccountName:   f.accountName,
		Amount:        amountMoney(f.amount).Display(),
		Narration:     f.narration,
		Fee:           domain.PayoutFee.DisplayFixed(),
		CompletedAt:   now,
	}
	if f.bank != nil {
		r.BankName = f.bank.Name
		r.BankCode = f.bank.Code
	}
	return r
}

func (f *Flow) transitionLocked(e EventKind) error {
	next, err := Transition(f.state, e)
	if err != nil {
		return err
	}
	observability.IncrementPayoutTransition(f.state.String(), next.String())
	f.state = next
	return nil
}

func (f *Flow) editableLocked() error {
	if f.closed {
		return ErrClosed
	}
	if f.state != StateForm {
		return fmt.Errorf("%w: form is read-only on %s", ErrInvalidTransition, f.state)
	}
	return nil
}

func amountMoney(digits string) domain.Money {
	return domain.ParseMoney(digits, domain.CurrencyNGN)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func wait(ctx context.Context, done <-chan struct{}) error {
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
