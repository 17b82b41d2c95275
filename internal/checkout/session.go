package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/bellybee/checkout/domain"
	"github.com/bellybee/checkout/internal/cartstore"
	"github.com/bellybee/checkout/internal/location"
	"github.com/bellybee/checkout/internal/payment"
	"github.com/bellybee/checkout/internal/pricing"
)

var (
	ErrLineNotFound     = errors.New("cart line not found")
	ErrSessionFinalized = errors.New("session already produced an order")
	ErrNoMethodSelected = errors.New("no payment method selected")
	ErrInvalidCartLine  = errors.New("cart line needs an id, a positive price and a quantity of at least 1")
	ErrInvalidDiscount  = errors.New("discount must be between 0 and 100")
)

// Session holds one user's checkout flow: cart lines, contact form, selected
// method. The cart is read from the store once at session start and written
// back after every mutation; the session is the cart's single writer.
type Session struct {
	userID       string
	store        *cartstore.Store
	resolver     *location.Resolver
	orchestrator *payment.Orchestrator
	finalizer    *Finalizer

	mu        sync.Mutex
	lines     []domain.CartLine
	name      string
	phone     string
	method    domain.PaymentMethod
	finalized bool
}

// NewSession loads the persisted cart and binds the collaborators.
func NewSession(ctx context.Context, userID string, store *cartstore.Store, resolver *location.Resolver, orch *payment.Orchestrator, finalizer *Finalizer) (*Session, error) {
	cart, err := store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Session{
		userID:       userID,
		store:        store,
		resolver:     resolver,
		orchestrator: orch,
		finalizer:    finalizer,
		lines:        cart.Lines,
	}, nil
}

// Lines returns a copy of the cart lines.
func (s *Session) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Totals derives the four figures from the current cart.
func (s *Session) Totals() domain.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Derive(s.lines)
}

// AddLine adds a new line or bumps the quantity of an existing one, then
// persists the cart.
func (s *Session) AddLine(ctx context.Context, line domain.CartLine) error {
	if line.ID == "" || line.Price <= 0 || line.Quantity < 1 {
		return ErrInvalidCartLine
	}
	if line.DiscountPct < 0 || line.DiscountPct > 100 {
		return ErrInvalidDiscount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(line.ID); i >= 0 {
		s.lines[i].Quantity += line.Quantity
	} else {
		s.lines = append(s.lines, line)
	}
	return s.persist(ctx)
}

// IncrementQty bumps a line's quantity by one.
func (s *Session) IncrementQty(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	s.lines[i].Quantity++
	return s.persist(ctx)
}

// DecrementQty lowers a line's quantity by one; a line reaching zero is
// removed.
func (s *Session) DecrementQty(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	s.lines[i].Quantity--
	if s.lines[i].Quantity <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	return s.persist(ctx)
}

// RemoveLine drops a line regardless of quantity.
func (s *Session) RemoveLine(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return ErrLineNotFound
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return s.persist(ctx)
}

// SetContact records the contact form fields.
func (s *Session) SetContact(name, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.phone = phone
}

// SelectPayment picks one of the closed method set.
func (s *Session) SelectPayment(method domain.PaymentMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method = method
}

// ApplyPromo reports whether the code applies at the current subtotal.
func (s *Session) ApplyPromo(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.CheckPromo(code, pricing.Subtotal(s.lines))
}

// Resolver exposes the session's location resolver for the HTTP surface.
func (s *Session) Resolver() *location.Resolver {
	return s.resolver
}

// SubmitOutcome is what one submission produced. Order and Confirmation are
// set only when the attempt succeeded and the order was finalized.
type SubmitOutcome struct {
	Status       domain.AttemptStatus
	Order        *domain.Order
	Confirmation string
}

// Submit recomputes the total, runs the selected payment method and, on
// success, finalizes exactly once. Abandoned and failed attempts leave the
// session open for a retry.
func (s *Session) Submit(ctx context.Context) (*SubmitOutcome, error) {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return nil, ErrSessionFinalized
	}
	if s.method == "" {
		s.mu.Unlock()
		return nil, ErrNoMethodSelected
	}

	// Total is derived here, at submission time. Never reuse a figure from an
	// earlier render.
	totals := pricing.Derive(s.lines)
	addr := s.resolver.Address()
	req := payment.SubmitRequest{
		Method:      s.method,
		Total:       totals.Total,
		HasItems:    len(s.lines) > 0,
		Name:        s.name,
		Phone:       s.phone,
		AddressLine: addr.Line1,
		Pincode:     addr.Pincode,
	}
	s.mu.Unlock()

	// The orchestrator guards against concurrent submission; the session
	// mutex is released so cart reads stay possible while paying.
	res, err := s.orchestrator.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.Status != domain.AttemptStatusSucceeded {
		return &SubmitOutcome{Status: res.Status}, nil
	}

	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return nil, ErrSessionFinalized
	}
	s.finalized = true
	s.mu.Unlock()

	order, msg, err := s.finalizer.Finalize(ctx, s.userID, req.Method, req.Total, res.PaymentRef)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	return &SubmitOutcome{Status: res.Status, Order: order, Confirmation: msg}, nil
}

// index finds a line by id; callers hold the mutex.
func (s *Session) index(id string) int {
	for i, l := range s.lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole cart back; callers hold the mutex.
func (s *Session) persist(ctx context.Context) error {
	return s.store.Save(ctx, &domain.Cart{UserID: s.userID, Lines: s.lines})
}
