package auth

import "fmt"

// InvalidRequestError is returned when a token request is missing a parameter or has an invalid one.
type InvalidRequestError struct {
	Description string
}

func (e InvalidRequestError) Error() string {
	return "invalid request: " + e.Description
}

// UnsupportedGrantTypeError is returned when an OAuth2 request has a grant type the server does not support.
type UnsupportedGrantTypeError struct {
	GrantType string
}

func (e UnsupportedGrantTypeError) Error() string {
	return fmt.Sprintf("unsupported grant type: %q", e.GrantType)
}
