package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

const signalIssuer = "einvoice-backend"

// SignalClaims is the payload of a backend force-logout signal.
// Subject is the identity to log out; SID narrows it to one browser session.
type SignalClaims struct {
	SID    string `json:"sid,omitempty"`
	Reason string `json:"reason,omitempty"`
	jwt.RegisteredClaims
}

// GenerateSignal signs a force-logout signal for identity
func GenerateSignal(identity, sid, reason, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SignalClaims{
		SID:    sid,
		Reason: reason,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    signalIssuer,
			Subject:   identity,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSignal verifies a force-logout signal and returns its claims
func ValidateSignal(tokenString, secret string) (*SignalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SignalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(signalIssuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*SignalClaims)
	if !ok || !token.Valid || (claims.Subject == "" && claims.SID == "") {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ExpiryOf reads the exp claim of a backend token without verifying it.
// The console cannot verify backend tokens; the value only sizes local
// storage lifetimes.
func ExpiryOf(tokenString string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
