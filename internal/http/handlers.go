// Package http is the JSON surface over the checkout session.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bellybee/checkout/domain"
	"github.com/bellybee/checkout/internal/checkout"
	"github.com/bellybee/checkout/internal/location"
	"github.com/bellybee/checkout/internal/payment"
)

// AttestFunc records the user's out-of-band answer to "did the payment app
// complete?" for a deep-link attempt.
type AttestFunc func(ctx context.Context, userID string, confirmed bool) error

type CheckoutHandler struct {
	sessions *checkout.Manager
	attest   AttestFunc
}

func NewCheckoutHandler(sessions *checkout.Manager, attest AttestFunc) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, attest: attest}
}

// Routes mounts every endpoint under /api/v1.
func (h *CheckoutHandler) Routes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Post("/items/{id}/increment", h.IncrementItem)
		r.Post("/items/{id}/decrement", h.DecrementItem)
		r.Delete("/items/{id}", h.RemoveItem)
	})
	r.Put("/contact", h.SetContact)
	r.Post("/promo", h.ApplyPromo)
	r.Route("/location", func(r chi.Router) {
		r.Post("/position", h.ReportPosition)
		r.Get("/address", h.GetAddress)
		r.Put("/address", h.SetAddress)
	})
	r.Post("/checkout", h.Submit)
	if h.attest != nil {
		r.Post("/checkout/confirm", h.ConfirmDeepLink)
	}
}

type CartLineDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	DiscountPct int    `json:"discount,omitempty"`
	Quantity    int    `json:"quantity"`
	Image       string `json:"image,omitempty"`
}

type CartResponseDTO struct {
	Lines  []domain.CartLine `json:"lines"`
	Totals domain.Totals     `json:"totals"`
}

// GET /api/v1/cart
func (h *CheckoutHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, CartResponseDTO{
		Lines:  session.Lines(),
		Totals: session.Totals(),
	})
}

// POST /api/v1/cart/items
func (h *CheckoutHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req CartLineDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := session.AddLine(r.Context(), domain.CartLine{
		ID:          req.ID,
		Name:        req.Name,
		Price:       req.Price,
		DiscountPct: req.DiscountPct,
		Quantity:    req.Quantity,
		Image:       req.Image,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_cart_line", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, CartResponseDTO{Lines: session.Lines(), Totals: session.Totals()})
}

// POST /api/v1/cart/items/{id}/increment
func (h *CheckoutHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(s *checkout.Session, id string) error {
		return s.IncrementQty(r.Context(), id)
	})
}

// POST /api/v1/cart/items/{id}/decrement
func (h *CheckoutHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(s *checkout.Session, id string) error {
		return s.DecrementQty(r.Context(), id)
	})
}

// DELETE /api/v1/cart/items/{id}
func (h *CheckoutHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(s *checkout.Session, id string) error {
		return s.RemoveLine(r.Context(), id)
	})
}

func (h *CheckoutHandler) mutateLine(w http.ResponseWriter, r *http.Request, op func(*checkout.Session, string) error) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := op(session, id); err != nil {
		if errors.Is(err, checkout.ErrLineNotFound) {
			respondError(w, http.StatusNotFound, "line_not_found", "no such cart line")
			return
		}
		respondError(w, http.StatusInternalServerError, "cart_write_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{Lines: session.Lines(), Totals: session.Totals()})
}

type ContactRequestDTO struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PUT /api/v1/contact
func (h *CheckoutHandler) SetContact(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ContactRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session.SetContact(req.Name, req.Phone)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type PromoRequestDTO struct {
	Code string `json:"code"`
}

type PromoResponseDTO struct {
	Applicable bool `json:"applicable"`
}

// POST /api/v1/promo
func (h *CheckoutHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req PromoRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(session.Lines()) == 0 {
		respondError(w, http.StatusBadRequest, "empty_cart", "add items first")
		return
	}

	respondJSON(w, http.StatusOK, PromoResponseDTO{Applicable: session.ApplyPromo(req.Code)})
}

type PositionRequestDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AddressResponseDTO struct {
	Address domain.Address `json:"address"`
	Message string         `json:"message,omitempty"`
}

// POST /api/v1/location/position reports a device fix or a dragged pin. The
// resolver re-geocodes; a resolution failure is non-fatal and comes back as a
// retryable message with the previous address intact.
func (h *CheckoutHandler) ReportPosition(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req PositionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	resolver := session.Resolver()
	err := resolver.PinDragged(r.Context(), domain.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude})

	resp := AddressResponseDTO{Address: resolver.Address()}
	if err != nil {
		resp.Message = location.UserMessage(err)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/v1/location/address
func (h *CheckoutHandler) GetAddress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, AddressResponseDTO{Address: session.Resolver().Address()})
}

type AddressRequestDTO struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	Pincode  string `json:"pincode"`
	Landmark string `json:"landmark,omitempty"`
}

// PUT /api/v1/location/address replaces the manually edited address fields.
// Coordinates from the last fix or drag are kept.
func (h *CheckoutHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddressRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	session.Resolver().SetAddress(domain.Address{
		Line1:    req.Line1,
		Line2:    req.Line2,
		Pincode:  req.Pincode,
		Landmark: req.Landmark,
	})
	respondJSON(w, http.StatusOK, AddressResponseDTO{Address: session.Resolver().Address()})
}

type SubmitRequestDTO struct {
	Method string `json:"method"`
}

type SubmitResponseDTO struct {
	Status       string        `json:"status"`
	Order        *domain.Order `json:"order,omitempty"`
	Confirmation string        `json:"confirmation,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SubmitRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	method, err := domain.ParsePaymentMethod(req.Method)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_method", err.Error())
		return
	}
	session.SelectPayment(method)

	outcome, err := session.Submit(r.Context())
	if err != nil {
		handleSubmitError(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Order != nil {
		status = http.StatusCreated
		h.sessions.Drop(getUserIDFromContext(r.Context()))
	}
	respondJSON(w, status, SubmitResponseDTO{
		Status:       outcome.Status.String(),
		Order:        outcome.Order,
		Confirmation: outcome.Confirmation,
	})
}

type ConfirmRequestDTO struct {
	Confirmed bool `json:"confirmed"`
}

// POST /api/v1/checkout/confirm records whether the external payment app
// completed. A deep-link submission in flight picks the answer up while it
// waits.
func (h *CheckoutHandler) ConfirmDeepLink(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ConfirmRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.attest(r.Context(), userID, req.Confirmed); err != nil {
		log.Printf("failed to record confirmation for %s: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "confirm_failed", "could not record confirmation")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func handleSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, payment.ErrMissingFields):
		respondError(w, http.StatusBadRequest, "missing_fields", "please fill name, phone, address and pincode")
	case errors.Is(err, checkout.ErrNoMethodSelected):
		respondError(w, http.StatusBadRequest, "no_method", "select a payment method")
	case errors.Is(err, payment.ErrAttemptInFlight):
		respondError(w, http.StatusConflict, "attempt_in_flight", "a payment attempt is already in progress")
	case errors.Is(err, checkout.ErrSessionFinalized):
		respondError(w, http.StatusConflict, "already_finalized", "this session already produced an order")
	case errors.Is(err, payment.ErrScriptLoad):
		respondError(w, http.StatusBadGateway, "script_load_failed", "hosted checkout is unavailable, try another method")
	case errors.Is(err, payment.ErrUnsupportedMethod):
		// contract violation: the closed set should make this unreachable
		respondError(w, http.StatusInternalServerError, "unsupported_method", "internal error")
	default:
		log.Printf("payment submission failed: %v", err)
		respondError(w, http.StatusBadGateway, "payment_failed", "payment failed, please retry")
	}
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return nil, false
	}

	session, err := h.sessions.Get(r.Context(), userID)
	if err != nil {
		log.Printf("failed to load session for %s (request %s): %v", userID, getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "session_load_failed", "could not load cart")
		return nil, false
	}
	return session, true
}
