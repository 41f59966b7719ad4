package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/deepfraud/deepfraud/internal/domain/session"
)

// Claims carried by locally minted session tokens
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	Clearance int    `json:"clearance"`
	jwt.RegisteredClaims
}

// Manager mints and validates the HS256 tokens used by the demo fallback
// path. Tokens issued by the external identity provider are opaque and pass
// through untouched.
type Manager struct {
	secret     []byte
	expiration time.Duration
}

func NewManager(secret string, expiration time.Duration) *Manager {
	if expiration <= 0 {
		expiration = 12 * time.Hour
	}
	return &Manager{secret: []byte(secret), expiration: expiration}
}

// Mint generates a signed token for the session.
func (m *Manager) Mint(s *session.Session) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username:  s.Username,
		Role:      s.Role,
		Clearance: s.ClearanceLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a token string and returns its claims.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
