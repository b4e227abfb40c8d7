// Package metadata holds the wire contract of the token metadata registry.
// It is a separate module so the mock registry and the service share one
// definition without the mock importing service internals.
package metadata

// Version is sent in the X-Contract-Version header on every request.
const Version = "v1"

const (
	PathTokens      = "/v1/tokens"
	PathToken       = "/v1/tokens/{mint}"
	PathTokenRevoke = "/v1/tokens/{mint}/update-authority"
)

// Token is the metadata document stored per mint. Addresses are base58.
type Token struct {
	Mint            string `json:"mint"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
	UpdateAuthority string `json:"update_authority,omitempty"`
	Mutable         bool   `json:"mutable"`
}

// CreateRequest registers metadata for a new mint.
type CreateRequest struct {
	Mint            string `json:"mint"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
	UpdateAuthority string `json:"update_authority"`
}

// UpdateRequest replaces the mutable fields.
type UpdateRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

// Error codes returned in ErrorResponse.Error.
const (
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"
	ErrCodeRevoked  = "update_authority_revoked"
	ErrCodeInvalid  = "invalid_request"
)

type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}
