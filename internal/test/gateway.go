package test

import (
	"context"
	"fmt"
	"sync"

	"github.com/polkiloo/samplestore/internal/adapter/events"
	"github.com/polkiloo/samplestore/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/samplestore/internal/domain/errors"
	"github.com/polkiloo/samplestore/internal/domain/model"
)

// GatewayStub serves canned payments and records created preferences.
type GatewayStub struct {
	mu sync.Mutex

	Payments map[string]model.GatewayPayment
	Searches map[string][]model.GatewayPayment
	Err      error

	CreateFn    func(model.PreferenceRequest) (*model.Preference, error)
	Preferences []model.PreferenceRequest
	Fetches     int
}

// NewGatewayStub returns a stub with empty payment tables.
func NewGatewayStub() *GatewayStub {
	return &GatewayStub{
		Payments: make(map[string]model.GatewayPayment),
		Searches: make(map[string][]model.GatewayPayment),
	}
}

// FetchPayment returns the stored payment or ErrGatewayRejected, the way the
// gateway answers 404 for an unknown id.
func (g *GatewayStub) FetchPayment(_ context.Context, id string) (*model.GatewayPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Fetches++
	if g.Err != nil {
		return nil, g.Err
	}
	p, ok := g.Payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, domainErrors.ErrGatewayRejected)
	}
	return &p, nil
}

// SearchPayments returns the payments registered for reference.
func (g *GatewayStub) SearchPayments(_ context.Context, reference string) ([]model.GatewayPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Searches[reference], nil
}

// CreatePreference records req and returns a preference derived from the reference.
func (g *GatewayStub) CreatePreference(_ context.Context, req model.PreferenceRequest) (*model.Preference, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Preferences = append(g.Preferences, req)
	if g.CreateFn != nil {
		return g.CreateFn(req)
	}
	if g.Err != nil {
		return nil, g.Err
	}
	return &model.Preference{
		ID:        "pref-" + req.ExternalReference,
		InitPoint: "https://gateway.test/checkout/" + req.ExternalReference,
	}, nil
}

// PublisherStub collects published transition events.
type PublisherStub struct {
	mu     sync.Mutex
	Err    error
	events []model.TransitionEvent
}

// Publish records event and returns Err.
func (p *PublisherStub) Publish(_ context.Context, event model.TransitionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.Err
}

// Events returns a copy of everything published so far.
func (p *PublisherStub) Events() []model.TransitionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.TransitionEvent(nil), p.events...)
}

var (
	_ gateway.Client   = (*GatewayStub)(nil)
	_ events.Publisher = (*PublisherStub)(nil)
)
