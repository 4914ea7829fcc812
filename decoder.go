package session

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenDecoder decodes a bearer token into claims. Decoders do not judge
// expiry, the Validator does that against its grace window.
type TokenDecoder interface {
	Decode(tokenString string) (*Claims, error)
}

// TokenDecoderFunc adapts a function into a TokenDecoder.
type TokenDecoderFunc func(tokenString string) (*Claims, error)

// Decode satisfies the TokenDecoder interface.
func (f TokenDecoderFunc) Decode(tokenString string) (*Claims, error) {
	if f == nil {
		return nil, ErrTokenMalformed
	}
	return f(tokenString)
}

// MultiTokenDecoder tries decoders in order until one succeeds.
// It treats ErrTokenMalformed as "try next" and returns the last malformed
// error if all decoders fail.
type MultiTokenDecoder struct {
	decoders []TokenDecoder
}

// NewMultiTokenDecoder filters nil decoders and returns a composite decoder.
func NewMultiTokenDecoder(decoders ...TokenDecoder) *MultiTokenDecoder {
	filtered := make([]TokenDecoder, 0, len(decoders))
	for _, d := range decoders {
		if d != nil {
			filtered = append(filtered, d)
		}
	}
	return &MultiTokenDecoder{decoders: filtered}
}

// Decode satisfies the TokenDecoder interface.
func (m *MultiTokenDecoder) Decode(tokenString string) (*Claims, error) {
	var lastErr error
	for _, d := range m.decoders {
		claims, err := d.Decode(tokenString)
		if err == nil {
			return claims, nil
		}
		if IsMalformedError(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTokenMalformed
}

// NewUnverifiedDecoder reads the token payload without checking the
// signature. A client holding no key can only do this, the backend remains
// the authority on every request.
func NewUnverifiedDecoder() TokenDecoder {
	parser := jwt.NewParser()
	return TokenDecoderFunc(func(tokenString string) (*Claims, error) {
		if tokenString == "" {
			return nil, malformed(nil, "empty token")
		}
		claims := &Claims{}
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, malformed(err, err.Error())
		}
		return checkClaims(claims)
	})
}

// NewHMACDecoder verifies HS256/384/512 signatures with a shared key.
func NewHMACDecoder(key []byte) TokenDecoder {
	return &signedDecoder{
		keyfunc: func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		},
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// JWKSDecoder verifies signatures against a remote JWK set.
type JWKSDecoder struct {
	signedDecoder
	jwks *keyfunc.JWKS
}

// NewJWKSDecoder fetches the JWK set at url and keeps it refreshed in the
// background until Close is called.
func NewJWKSDecoder(url string, logger Logger) (*JWKSDecoder, error) {
	logger = normalizeLogger(logger)
	jwks, err := keyfunc.Get(url, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Error("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to fetch JWK set").
			WithMetadata(map[string]any{"url": url})
	}

	return &JWKSDecoder{
		signedDecoder: signedDecoder{
			keyfunc: jwks.Keyfunc,
			parser:  jwt.NewParser(jwt.WithoutClaimsValidation()),
		},
		jwks: jwks,
	}, nil
}

// Close ends the background refresh.
func (d *JWKSDecoder) Close() {
	if d.jwks != nil {
		d.jwks.EndBackground()
	}
}

type signedDecoder struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

func (d *signedDecoder) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, malformed(nil, "empty token")
	}

	claims := &Claims{}
	token, err := d.parser.ParseWithClaims(tokenString, claims, d.keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			clone := ErrTokenExpired.Clone()
			clone.Source = err
			return nil, clone
		}
		return nil, malformed(err, err.Error())
	}

	if !token.Valid {
		return nil, malformed(nil, "invalid token")
	}

	return checkClaims(claims)
}

func checkClaims(claims *Claims) (*Claims, error) {
	if claims.ExpiresAt == nil {
		return nil, malformed(nil, "missing exp claim")
	}
	return claims, nil
}
