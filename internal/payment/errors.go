package payment

import "errors"

var (
	// ErrEmptyCart rejects a submission before any external call is made.
	ErrEmptyCart = errors.New("cart is empty, nothing to pay for")
	// ErrMissingFields rejects a submission with incomplete contact details.
	ErrMissingFields = errors.New("name, phone, address and pincode are required")
	// ErrAttemptInFlight rejects a second submission while one is pending.
	ErrAttemptInFlight = errors.New("a payment attempt is already in progress")
	// ErrUnsupportedMethod marks a contract violation: a method outside the
	// closed selection set reached the orchestrator.
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	// ErrSheetDismissed is returned by a HostedGateway when the user closes
	// the payment sheet without paying.
	ErrSheetDismissed = errors.New("payment sheet dismissed")
	// ErrScriptLoad means the hosted checkout SDK could not be loaded. Only
	// the hosted path is blocked; COD and deep-link payments stay available.
	ErrScriptLoad = errors.New("failed to load hosted checkout script")
)
