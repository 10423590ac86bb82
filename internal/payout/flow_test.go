package payout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enquirerFunc func(ctx context.Context, bankCode, accountNumber string) (string, error)

func (fn enquirerFunc) ResolveAccountName(ctx context.Context, bankCode, accountNumber string) (string, error) {
	return fn(ctx, bankCode, accountNumber)
}

type verifierFunc func(ctx context.Context, accessToken, pin string) (bool, error)

func (fn verifierFunc) VerifyPIN(ctx context.Context, accessToken, pin string) (bool, error) {
	return fn(ctx, accessToken, pin)
}

func instantGateway() *gateway.MockGateway {
	g := gateway.NewMockGateway("1234")
	g.Delay = 0
	return g
}

func newTestFlow(g gateway.Gateway) *Flow {
	return NewFlow(g, g, "access-token", nil).WithPINDelay(0)
}

// readyFlow returns a flow on Confirm for GTBank / 1234567890 / 5000.
func readyFlow(t *testing.T, enq gateway.NameEnquirer, ver gateway.PINVerifier) *Flow {
	t.Helper()
	f := NewFlow(enq, ver, "access-token", nil).WithPINDelay(0)
	require.NoError(t, f.SelectBank("058"))
	require.NoError(t, f.SetAccountNumber("1234567890"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	require.NoError(t, f.SetAmount("5000"))
	require.NoError(t, f.Continue())
	require.Equal(t, StateConfirm, f.State())
	return f
}

func enterPIN(t *testing.T, f *Flow, pin string) {
	t.Helper()
	for _, r := range pin {
		require.NoError(t, f.PressKey(string(r)))
	}
	require.NoError(t, f.AwaitVerification(context.Background()))
}

func TestTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    State
		event   EventKind
		want    State
		wantErr bool
	}{
		{name: "form_continue", from: StateForm, event: EventContinue, want: StateConfirm},
		{name: "confirm_back", from: StateConfirm, event: EventBack, want: StateForm},
		{name: "confirm_continue", from: StateConfirm, event: EventContinue, want: StatePin},
		{name: "pin_verified", from: StatePin, event: EventPINVerified, want: StateSuccess},
		{name: "success_reset", from: StateSuccess, event: EventReset, want: StateForm},
		{name: "form_back", from: StateForm, event: EventBack, wantErr: true},
		{name: "pin_back", from: StatePin, event: EventBack, wantErr: true},
		{name: "pin_continue", from: StatePin, event: EventContinue, wantErr: true},
		{name: "form_pin_verified", from: StateForm, event: EventPINVerified, wantErr: true},
		{name: "confirm_reset", from: StateConfirm, event: EventReset, wantErr: true},
		{name: "unknown", from: State(7), event: EventContinue, wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.event)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tc.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFilterBanks(t *testing.T) {
	assert.Len(t, FilterBanks(""), 20)
	assert.Empty(t, FilterBanks("nonexistent"))

	gt := FilterBanks("gt")
	require.Len(t, gt, 1)
	assert.Equal(t, "GTBank", gt[0].Name)
	assert.Equal(t, "058", gt[0].Code)

	names := make([]string, 0)
	for _, b := range FilterBanks("BANK") {
		names = append(names, b.Name)
	}
	assert.Contains(t, names, "Ecobank")
	assert.Contains(t, names, "GTBank")
	assert.NotContains(t, names, "OPay")
}

func TestNewReference(t *testing.T) {
	ts := time.UnixMilli(1739523600123)
	assert.Equal(t, "TXN23600123", NewReference(ts))
}

func TestFlow_HappyPathToSuccess(t *testing.T) {
	f := newTestFlow(instantGateway())

	banks := FilterBanks("GTBank")
	require.Len(t, banks, 1)
	require.NoError(t, f.SelectBank(banks[0].Code))
	require.NoError(t, f.SetAccountNumber("1234567890"))
	require.NoError(t, f.AwaitResolution(context.Background()))

	snap := f.Snapshot()
	assert.Equal(t, "CHUKWUEMEKA ADEBAYO JOHNSON", snap.AccountName)
	assert.False(t, snap.Resolving)

	require.NoError(t, f.SetAmount("5000"))
	require.NoError(t, f.Continue())

	snap = f.Snapshot()
	assert.Equal(t, StateConfirm, snap.State)
	assert.Equal(t, "₦5,000", snap.AmountDisplay)
	assert.Equal(t, "₦10.00", snap.Fee)
	assert.Equal(t, "GTBank", snap.Bank.Name)
}

func TestFlow_ContinueGuards(t *testing.T) {
	cases := []struct {
		name     string
		account  string
		amount   string
		expected error
	}{
		{name: "no_name_no_amount", account: "123456789", amount: "", expected: ErrNameNotResolved},
		{name: "no_name_with_amount", account: "123456789", amount: "5000", expected: ErrNameNotResolved},
		{name: "name_no_amount", account: "1234567890", amount: "", expected: ErrAmountRequired},
		{name: "name_zero_amount", account: "1234567890", amount: "000", expected: ErrAmountRequired},
		{name: "name_and_amount", account: "1234567890", amount: "10000"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newTestFlow(instantGateway())
			require.NoError(t, f.SelectBank("058"))
			require.NoError(t, f.SetAccountNumber(tc.account))
			require.NoError(t, f.AwaitResolution(context.Background()))
			require.NoError(t, f.SetAmount(tc.amount))

			err := f.Continue()
			if tc.expected != nil {
				assert.ErrorIs(t, err, tc.expected)
				assert.Equal(t, StateForm, f.State())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StateConfirm, f.State())
		})
	}
}

func TestFlow_InputSanitising(t *testing.T) {
	f := newTestFlow(instantGateway())
	require.NoError(t, f.SetAccountNumber("123-456 7890 99"))
	require.NoError(t, f.SetAmount("₦5,000"))

	snap := f.Snapshot()
	assert.Equal(t, "1234567890", snap.AccountNumber)
	assert.Equal(t, "5000", snap.Amount)
	// No bank yet, so no enquiry.
	assert.Empty(t, snap.AccountName)
	assert.False(t, snap.Resolving)

	assert.ErrorIs(t, f.SelectBank("999"), ErrUnknownBank)
}

func TestFlow_AccountChangeClearsName(t *testing.T) {
	f := newTestFlow(instantGateway())
	require.NoError(t, f.SelectBank("058"))
	require.NoError(t, f.SetAccountNumber("1234567890"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	require.NotEmpty(t, f.Snapshot().AccountName)

	require.NoError(t, f.SetAccountNumber("123456789"))
	assert.Empty(t, f.Snapshot().AccountName)
	assert.ErrorIs(t, f.Continue(), ErrNameNotResolved)
}

func TestFlow_BankChangeReResolves(t *testing.T) {
	var calls atomic.Int32
	enq := enquirerFunc(func(_ context.Context, bankCode, _ string) (string, error) {
		calls.Add(1)
		return "HOLDER AT " + bankCode, nil
	})
	f := NewFlow(enq, instantGateway(), "tok", nil)
	require.NoError(t, f.SelectBank("058"))
	require.NoError(t, f.SetAccountNumber("1234567890"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	assert.Equal(t, "HOLDER AT 058", f.Snapshot().AccountName)

	require.NoError(t, f.SelectBank("232"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	assert.Equal(t, "HOLDER AT 232", f.Snapshot().AccountName)
	assert.Equal(t, int32(2), calls.Load())

	// Same bank again is a no-op.
	require.NoError(t, f.SelectBank("232"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFlow_StaleResolutionDiscarded(t *testing.T) {
	gate := make(chan struct{})
	enq := enquirerFunc(func(_ context.Context, _, account string) (string, error) {
		if account == "1111111111" {
			<-gate
			return "OLD HOLDER", nil
		}
		return "NEW HOLDER", nil
	})
	f := NewFlow(enq, instantGateway(), "tok", nil)
	require.NoError(t, f.SelectBank("058"))
	require.NoError(t, f.SetAccountNumber("1111111111"))
	assert.True(t, f.Snapshot().Resolving)

	require.NoError(t, f.SetAccountNumber("2222222222"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	assert.Equal(t, "NEW HOLDER", f.Snapshot().AccountName)

	close(gate)
	assert.Never(t, func() bool {
		return f.Snapshot().AccountName != "NEW HOLDER"
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestFlow_ResolutionFailureBlocksAndRetries(t *testing.T) {
	var calls atomic.Int32
	enq := enquirerFunc(func(context.Context, string, string) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("processor unavailable")
		}
		return "ADA LOVELACE", nil
	})
	f := NewFlow(enq, instantGateway(), "tok", nil)
	require.NoError(t, f.SelectBank("058"))
	require.NoError(t, f.SetAccountNumber("1234567890"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	require.NoError(t, f.SetAmount("5000"))

	snap := f.Snapshot()
	assert.Equal(t, MsgResolveFailed, snap.ResolveError)
	assert.ErrorIs(t, f.Continue(), ErrNameNotResolved)

	require.NoError(t, f.SetAccountNumber("1234567890"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	snap = f.Snapshot()
	assert.Empty(t, snap.ResolveError)
	assert.Equal(t, "ADA LOVELACE", snap.AccountName)
	require.NoError(t, f.Continue())
}

func TestFlow_ReselectingSameBankRetriesFailedResolution(t *testing.T) {
	var calls atomic.Int32
	enq := enquirerFunc(func(context.Context, string, string) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("processor unavailable")
		}
		return "ADA LOVELACE", nil
	})
	f := NewFlow(enq, instantGateway(), "tok", nil)
	require.NoError(t, f.SelectBank("058"))
	require.NoError(t, f.SetAccountNumber("1234567890"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	require.Equal(t, MsgResolveFailed, f.Snapshot().ResolveError)

	require.NoError(t, f.SelectBank("058"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	snap := f.Snapshot()
	assert.Empty(t, snap.ResolveError)
	assert.Equal(t, "ADA LOVELACE", snap.AccountName)
	assert.Equal(t, int32(2), calls.Load())

	// A resolved bank picked again does not re-run the enquiry.
	require.NoError(t, f.SelectBank("058"))
	require.NoError(t, f.AwaitResolution(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFlow_ConfirmBackKeepsValues(t *testing.T) {
	f := readyFlow(t, instantGateway(), instantGateway())
	assert.ErrorIs(t, f.SetAmount("1"), ErrInvalidTransition)

	require.NoError(t, f.Back())
	snap := f.Snapshot()
	assert.Equal(t, StateForm, snap.State)
	assert.Equal(t, "5000", snap.Amount)
	assert.Equal(t, "CHUKWUEMEKA ADEBAYO JOHNSON", snap.AccountName)
}

func TestFlow_PINKeypad(t *testing.T) {
	g := instantGateway()
	done := make(chan Receipt, 1)
	f := readyFlow(t, g, g)
	f.WithClock(func() time.Time { return time.UnixMilli(1739523600123) })
	f.WithOnComplete(func(r Receipt) { done <- r })

	assert.ErrorIs(t, f.PressKey("1"), ErrInvalidTransition)
	require.NoError(t, f.Continue())
	require.Equal(t, StatePin, f.State())
	assert.ErrorIs(t, f.Back(), ErrInvalidTransition)

	require.NoError(t, f.PressKey("1"))
	require.NoError(t, f.PressKey("2"))
	require.NoError(t, f.PressKey("9"))
	require.NoError(t, f.PressKey(KeyDelete))
	assert.Equal(t, 2, f.Snapshot().PINLength)
	assert.ErrorIs(t, f.PressKey("x"), ErrInvalidKey)

	enterPIN(t, f, "34")

	snap := f.Snapshot()
	require.Equal(t, StateSuccess, snap.State)
	require.NotNil(t, snap.Receipt)
	assert.Equal(t, "TXN23600123", snap.Receipt.Reference)
	assert.Equal(t, "₦5,000", snap.Receipt.Amount)
	assert.Equal(t, "GTBank", snap.Receipt.BankName)
	assert.Equal(t, "CHUKWUEMEKA ADEBAYO JOHNSON", snap.Receipt.AccountName)
	assert.Equal(t, 0, snap.PINLength)

	select {
	case r := <-done:
		assert.Equal(t, "TXN23600123", r.Reference)
	case <-time.After(time.Second):
		t.Fatal("completion callback not invoked")
	}
}

func TestFlow_IncorrectPIN(t *testing.T) {
	g := instantGateway()
	f := readyFlow(t, g, g)
	require.NoError(t, f.Continue())

	enterPIN(t, f, "9999")

	snap := f.Snapshot()
	assert.Equal(t, StatePin, snap.State)
	assert.Equal(t, MsgIncorrectPIN, snap.PINError)
	assert.Equal(t, 0, snap.PINLength)
	assert.Nil(t, snap.Receipt)

	require.NoError(t, f.PressKey("1"))
	assert.Empty(t, f.Snapshot().PINError)
}

func TestFlow_VerifierErrorKeepsPin(t *testing.T) {
	ver := verifierFunc(func(context.Context, string, string) (bool, error) {
		return false, errors.New("upstream down")
	})
	f := readyFlow(t, instantGateway(), ver)
	require.NoError(t, f.Continue())

	enterPIN(t, f, "1234")

	snap := f.Snapshot()
	assert.Equal(t, StatePin, snap.State)
	assert.Equal(t, MsgVerifyFailed, snap.PINError)
}

func TestFlow_VerificationPassesAccessToken(t *testing.T) {
	var token string
	ver := verifierFunc(func(_ context.Context, accessToken, pin string) (bool, error) {
		token = accessToken
		return pin == "2468", nil
	})
	f := readyFlow(t, instantGateway(), ver)
	require.NoError(t, f.Continue())

	enterPIN(t, f, "2468")
	assert.Equal(t, "access-token", token)
	assert.Equal(t, StateSuccess, f.State())
}

func TestFlow_KeysRejectedWhileVerifying(t *testing.T) {
	release := make(chan struct{})
	ver := verifierFunc(func(context.Context, string, string) (bool, error) {
		<-release
		return true, nil
	})
	f := readyFlow(t, instantGateway(), ver)
	f.WithPINDelay(20 * time.Millisecond)
	require.NoError(t, f.Continue())

	for _, k := range []string{"1", "2", "3", "4"} {
		require.NoError(t, f.PressKey(k))
	}
	assert.True(t, f.Snapshot().Verifying)
	assert.ErrorIs(t, f.PressKey(KeyDelete), ErrBusy)

	close(release)
	require.NoError(t, f.AwaitVerification(context.Background()))
	assert.Equal(t, StateSuccess, f.State())
}

func TestFlow_ResetClearsEverything(t *testing.T) {
	g := instantGateway()
	f := readyFlow(t, g, g)
	assert.ErrorIs(t, f.Reset(), ErrInvalidTransition)
	require.NoError(t, f.Continue())
	enterPIN(t, f, "1234")
	require.Equal(t, StateSuccess, f.State())

	require.NoError(t, f.Reset())
	snap := f.Snapshot()
	assert.Equal(t, StateForm, snap.State)
	assert.Nil(t, snap.Bank)
	assert.Empty(t, snap.AccountNumber)
	assert.Empty(t, snap.AccountName)
	assert.Empty(t, snap.Amount)
	assert.Empty(t, snap.Narration)
	assert.Nil(t, snap.Receipt)
}

func TestFlow_CloseDiscardsPendingVerification(t *testing.T) {
	ver := verifierFunc(func(ctx context.Context, _, _ string) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	})
	completed := false
	f := readyFlow(t, instantGateway(), ver)
	f.WithOnComplete(func(Receipt) { completed = true })
	require.NoError(t, f.Continue())
	for _, k := range []string{"1", "2", "3", "4"} {
		require.NoError(t, f.PressKey(k))
	}

	f.Close()
	require.NoError(t, f.AwaitVerification(context.Background()))
	assert.Equal(t, StatePin, f.State())
	assert.Empty(t, f.Snapshot().PINError)
	assert.False(t, completed)
	assert.ErrorIs(t, f.PressKey("1"), ErrClosed)
}
