package jwt

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/docker/libtrust"
	"github.com/golang-jwt/jwt/v4"
)

func detectSigningMethod(signingKey libtrust.PrivateKey) (jwt.SigningMethod, error) {
	switch signingKey.KeyType() {
	case "RSA":
		return jwt.SigningMethodRS256, nil

	case "EC":
		key, ok := signingKey.CryptoPrivateKey().(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unsupported EC signing key %T", signingKey.CryptoPrivateKey())
		}

		switch key.Curve.Params().BitSize {
		case 256:
			return jwt.SigningMethodES256, nil
		case 384:
			return jwt.SigningMethodES384, nil
		case 521:
			return jwt.SigningMethodES512, nil
		}

		return nil, fmt.Errorf("unsupported EC curve %s", key.Curve.Params().Name)
	}

	return nil, fmt.Errorf("unsupported signing key type %q", signingKey.KeyType())
}

// sign signs the token and sets headers that let a registry identify the signing key.
func sign(token *jwt.Token, signingKey libtrust.PrivateKey) (string, error) {
	token.Header["kid"] = signingKey.KeyID()

	if x5c := signingKey.GetExtendedField("x5c"); x5c != nil {
		token.Header["x5c"] = x5c
	} else {
		jwkMessage, err := signingKey.PublicKey().MarshalJSON()
		if err != nil {
			return "", err
		}

		token.Header["jwk"] = json.RawMessage(jwkMessage)
	}

	return token.SignedString(signingKey.CryptoPrivateKey())
}
