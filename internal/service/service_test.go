package service

import (
	"context"
	"sync"

	"github.com/ayo6706/merchant-gateway/internal/moneybox"
	"github.com/ayo6706/merchant-gateway/internal/upload"
)

type authenticatorFunc func(ctx context.Context, req moneybox.LoginRequest) (*moneybox.LoginResponse, error)

func (fn authenticatorFunc) Login(ctx context.Context, req moneybox.LoginRequest) (*moneybox.LoginResponse, error) {
	return fn(ctx, req)
}

type submitterFunc func(ctx context.Context, req moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error)

func (fn submitterFunc) SubmitOnboarding(ctx context.Context, req moneybox.OnboardingRequest) (*moneybox.OnboardingResponse, error) {
	return fn(ctx, req)
}

type passthroughPreparer struct{}

func (passthroughPreparer) Prepare(_ context.Context, f upload.File) (upload.File, error) {
	return f, nil
}

type ownerRecorder struct {
	mu     sync.Mutex
	owners []string
}

func (o *ownerRecorder) RemoveOwner(owner string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.owners = append(o.owners, owner)
	return 1
}
