package jwt

import (
	"encoding/base64"

	"github.com/gofrs/uuid"
	"github.com/jonboulle/clockwork"
)

// Clock provides the current time for issuing and verifying tokens.
type Clock = clockwork.Clock

// IDGenerator generates unique token IDs (the "jti" claim).
type IDGenerator interface {
	GenerateID() (string, error)
}

type uuidGenerator struct{}

func (uuidGenerator) GenerateID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(id.Bytes()), nil
}

// AccessTokenIssuerOption configures an AccessTokenIssuer.
type AccessTokenIssuerOption interface {
	applyAccessTokenIssuer(i *AccessTokenIssuer)
}

// RefreshTokenIssuerOption configures a RefreshTokenIssuer.
type RefreshTokenIssuerOption interface {
	applyRefreshTokenIssuer(i *RefreshTokenIssuer)
}

// ClockOption sets the clock of an issuer.
type ClockOption struct {
	clock Clock
}

// WithClock sets the clock of an issuer.
func WithClock(clock Clock) ClockOption {
	return ClockOption{clock}
}

func (o ClockOption) applyAccessTokenIssuer(i *AccessTokenIssuer) {
	i.clock = o.clock
}

func (o ClockOption) applyRefreshTokenIssuer(i *RefreshTokenIssuer) {
	i.clock = o.clock
}

// IDGeneratorOption sets the ID generator of an issuer.
type IDGeneratorOption struct {
	idGenerator IDGenerator
}

// WithIDGenerator sets the ID generator of an issuer.
func WithIDGenerator(idGenerator IDGenerator) IDGeneratorOption {
	return IDGeneratorOption{idGenerator}
}

func (o IDGeneratorOption) applyAccessTokenIssuer(i *AccessTokenIssuer) {
	i.idGenerator = o.idGenerator
}

func (o IDGeneratorOption) applyRefreshTokenIssuer(i *RefreshTokenIssuer) {
	i.idGenerator = o.idGenerator
}
