package payment

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockHostedGateway implements HostedGateway for testing
type MockHostedGateway struct {
	mu         sync.Mutex
	LoadErr    error
	LoadCalls  int32
	SheetRef   string
	SheetErr   error
	SheetCalls int
	LastOpts   CheckoutOptions
}

func (m *MockHostedGateway) LoadScript(ctx context.Context) error {
	atomic.AddInt32(&m.LoadCalls, 1)
	return m.LoadErr
}

func (m *MockHostedGateway) OpenSheet(ctx context.Context, opts CheckoutOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SheetCalls++
	m.LastOpts = opts
	if m.SheetErr != nil {
		return "", m.SheetErr
	}
	return m.SheetRef, nil
}

// MockNavigator implements Navigator for testing
type MockNavigator struct {
	Err  error
	URIs []string
}

func (m *MockNavigator) OpenURI(ctx context.Context, uri string) error {
	m.URIs = append(m.URIs, uri)
	return m.Err
}

// MockConfirmer implements Confirmer for testing
type MockConfirmer struct {
	OK    bool
	Err   error
	Calls int
}

func (m *MockConfirmer) ConfirmPayment(ctx context.Context) (bool, error) {
	m.Calls++
	return m.OK, m.Err
}

// blockingGateway holds OpenSheet until released, to exercise the in-flight guard
type blockingGateway struct {
	release chan struct{}
	opened  chan struct{}
}

func (b *blockingGateway) LoadScript(ctx context.Context) error { return nil }

func (b *blockingGateway) OpenSheet(ctx context.Context, opts CheckoutOptions) (string, error) {
	close(b.opened)
	<-b.release
	return "pay_ref_blocked", nil
}
