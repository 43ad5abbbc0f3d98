package registry

import "errors"

// Validation errors: malformed input, no partial effect.
var (
	ErrMissingRegistryID      = errors.New("national registry ID is mandatory for project registration")
	ErrRegistryIDMismatch     = errors.New("project ID must match national registry ID")
	ErrInsufficientFee        = errors.New("verification fee is below minimum required")
	ErrInvalidCoordinates     = errors.New("invalid geographic coordinates")
	ErrInvalidQualityRating   = errors.New("invalid quality rating (must be 1-5)")
	ErrFieldTooLong           = errors.New("field exceeds maximum length")
	ErrProjectIDRequired      = errors.New("project ID is required")
	ErrOwnerRequired          = errors.New("owner address is required")
	ErrRecipientCountMismatch = errors.New("amounts and recipients must have the same length")
)

// State-conflict errors: caller must re-read state and resubmit.
var (
	ErrProjectAlreadyProcessed = errors.New("project has already been processed")
	ErrProjectExists           = errors.New("project ID is already registered")
	ErrProjectNotFound         = errors.New("project not found")
	ErrVerifierNotActive       = errors.New("verifier is not active")
	ErrUnauthorizedVerifier    = errors.New("verifier does not match assigned project verifier")
)

// Capacity errors: caller must wait for a legitimate capacity increase.
var (
	ErrProjectNotVerified     = errors.New("project is not verified")
	ErrComplianceNotApproved  = errors.New("government compliance audit not approved")
	ErrExceedsCapacity        = errors.New("amount exceeds verified carbon capacity")
)

// Arithmetic errors: fatal to the operation, never saturated.
var (
	ErrMathOverflow = errors.New("math overflow occurred")
)
