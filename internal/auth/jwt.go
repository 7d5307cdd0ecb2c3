package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the guardian session token payload. The subject is the session
// id; student and org travel with it so handlers never read ambient state.
type Claims struct {
	SessionID string `json:"sid"`
	StudentID int64  `json:"studentId"`
	OrgID     string `json:"orgId,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a session token whose lifetime matches the session gate's
// expiry. There is no refresh flow: an expired session restarts from the
// verification step.
func Issue(sessionID string, studentID int64, orgID, issuer, key string, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := Claims{
		SessionID: sessionID,
		StudentID: studentID,
		OrgID:     orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(studentID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	if claims.SessionID == "" || claims.StudentID <= 0 {
		return Claims{}, errors.New("incomplete session claims")
	}
	return *claims, nil
}
