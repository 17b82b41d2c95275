// Package location turns a device fix or a dragged map pin into a structured
// delivery address.
package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bellybee/checkout/domain"
)

// Errors a Locator maps device failures onto. Each one carries a distinct
// user-facing message; none of them triggers an automatic retry.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrLocationTimeout     = errors.New("location request timed out")
	ErrAddressResolve      = errors.New("could not get address for that pin")
)

// Locator acquires the device's current position. Implementations must honor
// ctx cancellation and must not serve a cached fix.
type Locator interface {
	CurrentPosition(ctx context.Context) (domain.Coordinates, error)
}

// PinMap is the map surface: it renders a single draggable pin and calls back
// into the resolver (PinDragged) when a drag ends.
type PinMap interface {
	ShowPin(coords domain.Coordinates, zoom int)
}

// Fix acquisition state.
type State string

const (
	StateIdle           State = "IDLE"
	StateLocating       State = "LOCATING"
	StateLocated        State = "LOCATED"
	StateLocationFailed State = "LOCATION_FAILED"
)

// Address resolution state, independent of fix acquisition and re-enterable
// on every pin drag.
type AddressState string

const (
	AddressIdle      AddressState = "IDLE"
	AddressResolving AddressState = "RESOLVING_ADDRESS"
	AddressResolved  AddressState = "ADDRESS_RESOLVED"
	AddressFailed    AddressState = "ADDRESS_FAILED"
)

const (
	// AcquireTimeout bounds a device position request.
	AcquireTimeout = 20 * time.Second
	// pinZoom is the zoom level used when the pin is first placed from a fix.
	pinZoom = 17
)

// Resolver drives geolocation acquisition and reverse geocoding for one
// checkout session. Resolutions are sequence-tagged: a reverse-geocode result
// that arrives after a newer drag is dropped, so the address always reflects
// the most recent coordinates.
type Resolver struct {
	locator  Locator
	geocoder Geocoder
	pins     PinMap

	mu        sync.Mutex
	state     State
	addrState AddressState
	addr      domain.Address
	hasPin    bool
	seq       uint64
}

// NewResolver wires the device locator, the geocoder and the map surface.
// locator and pins may be nil when the deployment has no device sensor or no
// map; the corresponding operations then degrade per the error taxonomy.
func NewResolver(locator Locator, geocoder Geocoder, pins PinMap) *Resolver {
	return &Resolver{
		locator:   locator,
		geocoder:  geocoder,
		pins:      pins,
		state:     StateIdle,
		addrState: AddressIdle,
	}
}

// Acquire requests a fresh device fix, bounded by AcquireTimeout. On success
// the pin is placed at the fix and address resolution starts. The returned
// error is one of the sentinel errors above (or wraps one).
func (r *Resolver) Acquire(ctx context.Context) (domain.Coordinates, error) {
	if r.locator == nil {
		r.setState(StateLocationFailed)
		return domain.Coordinates{}, ErrPositionUnavailable
	}

	r.setState(StateLocating)

	acquireCtx, cancel := context.WithTimeout(ctx, AcquireTimeout)
	defer cancel()

	coords, err := r.locator.CurrentPosition(acquireCtx)
	if err != nil {
		r.setState(StateLocationFailed)
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Coordinates{}, ErrLocationTimeout
		}
		return domain.Coordinates{}, err
	}

	r.mu.Lock()
	r.state = StateLocated
	r.addr.Coords = &coords
	r.mu.Unlock()

	r.PlacePin(coords, pinZoom)

	if err := r.Resolve(ctx, coords.Latitude, coords.Longitude); err != nil {
		// Resolution failure is non-fatal: the fix itself succeeded and
		// manual address entry remains possible.
		log.Printf("address resolution after fix failed: %v", err)
	}
	return coords, nil
}

// PlacePin creates or repositions the single map marker. Only one marker ever
// exists; repeated calls move it.
func (r *Resolver) PlacePin(coords domain.Coordinates, zoom int) {
	r.mu.Lock()
	r.hasPin = true
	r.addr.Coords = &coords
	r.mu.Unlock()

	if r.pins != nil {
		r.pins.ShowPin(coords, zoom)
	}
}

// PinDragged is the drag-end callback. It repositions the marker and
// re-triggers address resolution at the new coordinates.
func (r *Resolver) PinDragged(ctx context.Context, coords domain.Coordinates) error {
	r.PlacePin(coords, pinZoom)
	return r.Resolve(ctx, coords.Latitude, coords.Longitude)
}

// Resolve reverse-geocodes the coordinates into address fields. On failure the
// previously resolved fields are left untouched and the caller gets a
// retryable error; a result superseded by a newer call is silently dropped.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) error {
	r.mu.Lock()
	r.seq++
	mySeq := r.seq
	r.addrState = AddressResolving
	r.mu.Unlock()

	place, err := r.geocoder.Reverse(ctx, lat, lng)

	r.mu.Lock()
	defer r.mu.Unlock()

	if mySeq != r.seq {
		// A newer drag superseded this resolution.
		return nil
	}

	if err != nil {
		r.addrState = AddressFailed
		return fmt.Errorf("%w: %v", ErrAddressResolve, err)
	}

	r.apply(place)
	r.addrState = AddressResolved
	return nil
}

// apply decomposes raw components into the session address. Precedence follows
// the upstream response shape: street line from house number + road, then
// neighbourhood-level names; locality line from city-level names, then state,
// then country. Postcode and landmark never get overwritten with empty values.
func (r *Resolver) apply(p *Place) {
	street := joinParts(" ", p.HouseNumber, p.Road)
	line1 := joinParts(", ", street, firstOf(p.Neighbourhood, p.Suburb, p.Quarter))

	city := firstOf(p.City, p.Town, p.Village, p.County)
	line2 := joinParts(", ", city, p.State, p.Country)

	if line1 != "" {
		r.addr.Line1 = line1
	}
	if line2 != "" {
		r.addr.Line2 = line2
	}
	if p.Postcode != "" {
		r.addr.Pincode = p.Postcode
	}
	if lm := firstOf(p.Hamlet, p.Locality, p.Suburb); lm != "" {
		r.addr.Landmark = lm
	}
}

// Address returns a copy of the current session address.
func (r *Resolver) Address() domain.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// SetAddress replaces the manually entered parts of the address. Coordinates
// are kept from the last fix or drag.
func (r *Resolver) SetAddress(addr domain.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	coords := r.addr.Coords
	r.addr = addr
	if addr.Coords == nil {
		r.addr.Coords = coords
	}
}

// States returns the current fix and resolution states.
func (r *Resolver) States() (State, AddressState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.addrState
}

func (r *Resolver) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// UserMessage maps an acquisition or resolution error onto the message shown
// to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Permission denied. Please allow location."
	case errors.Is(err, ErrPositionUnavailable):
		return "Position unavailable. Try again."
	case errors.Is(err, ErrLocationTimeout):
		return "Request timed out. Try again."
	case errors.Is(err, ErrAddressResolve):
		return "Could not get address for that pin. Try moving it slightly."
	default:
		return "Could not fetch location."
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinParts(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, strings.TrimSpace(p))
		}
	}
	return strings.Join(kept, sep)
}
