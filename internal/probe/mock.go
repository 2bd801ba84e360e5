package probe

import (
	"context"
	"sync"
	"time"
)

// MockProber is a mock implementation of Prober for testing
type MockProber struct {
	mu             sync.Mutex
	ProbeFunc      func(ctx context.Context, ipAddr string, timeout time.Duration) *time.Duration
	CloseFunc      func() error
	ProbeCallCount int
	ProbeCalls     []Call
	Closed         bool
}

// Call records a call to Probe
type Call struct {
	IPAddr  string
	Timeout time.Duration
}

// NewMockProber creates a new mock prober that answers every probe in 10ms
func NewMockProber() *MockProber {
	return &MockProber{
		ProbeFunc: func(_ context.Context, _ string, _ time.Duration) *time.Duration {
			latency := 10 * time.Millisecond
			return &latency
		},
		CloseFunc: func() error {
			return nil
		},
		ProbeCalls: make([]Call, 0),
	}
}

// Probe implements the Prober interface. ProbeFunc runs outside the lock.
func (m *MockProber) Probe(ctx context.Context, ipAddr string, timeout time.Duration) *time.Duration {
	m.mu.Lock()
	m.ProbeCallCount++
	m.ProbeCalls = append(m.ProbeCalls, Call{
		IPAddr:  ipAddr,
		Timeout: timeout,
	})
	fn := m.ProbeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, ipAddr, timeout)
	}
	return nil
}

// Close implements the Prober interface
func (m *MockProber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Closed = true
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// GetProbeCallCount returns the number of times Probe was called
func (m *MockProber) GetProbeCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ProbeCallCount
}

// GetProbeCalls returns all recorded Probe calls
func (m *MockProber) GetProbeCalls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.ProbeCalls...)
}

// IsClosed returns whether Close was called
func (m *MockProber) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// MockProberFactory is a mock implementation of ProberFactory for testing
type MockProberFactory struct {
	mu                  sync.Mutex
	CreateProberFunc    func(method Method, port int) (Prober, error)
	CreateProberCalls   []CreateProberCall
	CreatedProbers      []*MockProber
	CreateProberErrFunc func() error
}

// CreateProberCall records a call to CreateProber
type CreateProberCall struct {
	Method Method
	Port   int
}

// NewMockProberFactory creates a new mock prober factory
func NewMockProberFactory() *MockProberFactory {
	return &MockProberFactory{
		CreateProberCalls: make([]CreateProberCall, 0),
		CreatedProbers:    make([]*MockProber, 0),
	}
}

// CreateProber implements the ProberFactory interface
func (f *MockProberFactory) CreateProber(method Method, port int) (Prober, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreateProberCalls = append(f.CreateProberCalls, CreateProberCall{
		Method: method,
		Port:   port,
	})

	if f.CreateProberErrFunc != nil {
		if err := f.CreateProberErrFunc(); err != nil {
			return nil, err
		}
	}

	if f.CreateProberFunc != nil {
		return f.CreateProberFunc(method, port)
	}

	// Default: create a new mock prober
	mockProber := NewMockProber()
	f.CreatedProbers = append(f.CreatedProbers, mockProber)
	return mockProber, nil
}

// GetCreateProberCalls returns all recorded CreateProber calls
func (f *MockProberFactory) GetCreateProberCalls() []CreateProberCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CreateProberCall(nil), f.CreateProberCalls...)
}

// GetCreatedProbers returns all created mock probers
func (f *MockProberFactory) GetCreatedProbers() []*MockProber {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*MockProber(nil), f.CreatedProbers...)
}
