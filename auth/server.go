package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

// Set a Decoder instance as a package global, because it caches
// meta-data about structs, and an instance can be shared safely.
var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

// TokenServer implements the [Docker Registry v2 authentication] specification.
//
// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/index.md
type TokenServer struct {
	Service TokenService
	Logger  *zap.Logger
}

type tokenRequest struct {
	Service  string   `schema:"service"`
	ClientID string   `schema:"client_id"`
	Offline  bool     `schema:"offline_token"`
	Scope    []string `schema:"scope"`
}

type oauth2Request struct {
	GrantType    string   `schema:"grant_type"`
	Service      string   `schema:"service"`
	ClientID     string   `schema:"client_id"`
	AccessType   string   `schema:"access_type"`
	Scope        []string `schema:"scope"`
	Username     string   `schema:"username"`
	Password     string   `schema:"password"`
	RefreshToken string   `schema:"refresh_token"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (s TokenServer) handleError(err error, w http.ResponseWriter) {
	var invalidRequest InvalidRequestError
	var unsupportedGrantType UnsupportedGrantTypeError

	switch {
	case errors.Is(err, ErrAuthenticationFailed), errors.Is(err, ErrUnauthorized):
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

	case errors.As(err, &invalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", ErrorDescription: invalidRequest.Description})

	case errors.As(err, &unsupportedGrantType):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported_grant_type", ErrorDescription: unsupportedGrantType.Error()})

	default:
		if s.Logger != nil {
			s.Logger.Error("token request failed", zap.Error(err))
		}

		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// TokenHandler implements the [Docker Registry v2 authentication] specification.
//
// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
func (s TokenServer) TokenHandler(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest

	err := decoder.Decode(&req, r.URL.Query())
	if err != nil {
		s.handleError(InvalidRequestError{Description: err.Error()}, w)
		return
	}

	scopes, err := ParseScopes(req.Scope)
	if err != nil {
		s.handleError(InvalidRequestError{Description: err.Error()}, w)
		return
	}

	username, password, ok := r.BasicAuth()

	tokenRequest := TokenRequest{
		Service:   req.Service,
		ClientID:  req.ClientID,
		Offline:   req.Offline,
		Scopes:    scopes,
		Anonymous: !ok,
		Username:  username,
		Password:  password,
	}

	response, err := s.Service.TokenHandler(r.Context(), tokenRequest)
	if err != nil {
		s.handleError(err, w)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// OAuth2Handler implements the [Docker Registry v2 OAuth2 authentication] specification.
//
// [Docker Registry v2 OAuth2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/oauth.md
func (s TokenServer) OAuth2Handler(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		s.handleError(InvalidRequestError{Description: err.Error()}, w)
		return
	}

	var req oauth2Request

	err = decoder.Decode(&req, r.PostForm)
	if err != nil {
		s.handleError(InvalidRequestError{Description: err.Error()}, w)
		return
	}

	scopes, err := ParseScopes(req.Scope)
	if err != nil {
		s.handleError(InvalidRequestError{Description: err.Error()}, w)
		return
	}

	tokenRequest := OAuth2Request{
		GrantType:    req.GrantType,
		Service:      req.Service,
		ClientID:     req.ClientID,
		AccessType:   req.AccessType,
		Scopes:       scopes,
		Username:     req.Username,
		Password:     req.Password,
		RefreshToken: req.RefreshToken,
	}

	response, err := s.Service.OAuth2Handler(r.Context(), tokenRequest)
	if err != nil {
		s.handleError(err, w)
		return
	}

	writeJSON(w, http.StatusOK, response)
}
