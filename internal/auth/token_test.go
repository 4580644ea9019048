package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTokenServices(t *testing.T, clock *fakeClock) map[string]TokenService {
	t.Helper()

	jwtSvc, err := NewJWTService([]byte("test-secret"), WithClock(clock.Now))
	require.NoError(t, err)

	pasetoSvc, err := NewPasetoService([]byte(strings.Repeat("k", 32)), WithClock(clock.Now))
	require.NoError(t, err)

	return map[string]TokenService{"jwt": jwtSvc, "paseto": pasetoSvc}
}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	for name, svc := range newTokenServices(t, clock) {
		t.Run(name, func(t *testing.T) {
			userID := uuid.New()

			token, err := svc.CreateToken(userID, time.Hour)
			require.NoError(t, err)

			claims, err := svc.VerifyToken(token)
			require.NoError(t, err)
			assert.Equal(t, userID.String(), claims.UserID)
			assert.True(t, claims.IssuedAt.Equal(clock.now))
			assert.True(t, claims.ExpiresAt.Equal(clock.now.Add(time.Hour)))
		})
	}
}

func TestTokenService_Expiry(t *testing.T) {
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name := range newTokenServices(t, &fakeClock{now: issued}) {
		t.Run(name, func(t *testing.T) {
			clock := &fakeClock{now: issued}
			svc := newTokenServices(t, clock)[name]

			token, err := svc.CreateToken(uuid.New(), time.Hour)
			require.NoError(t, err)

			clock.now = issued.Add(59 * time.Minute)
			_, err = svc.VerifyToken(token)
			require.NoError(t, err)

			clock.now = issued.Add(61 * time.Minute)
			_, err = svc.VerifyToken(token)
			require.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	clock := &fakeClock{now: time.Now()}

	for name, svc := range newTokenServices(t, clock) {
		t.Run(name, func(t *testing.T) {
			for _, token := range []string{"", "abc", "a.b.c", "v4.local.AAAA"} {
				_, err := svc.VerifyToken(token)
				require.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
			}
		})
	}
}

func TestJWTService_RejectsForeignSecret(t *testing.T) {
	issuer, err := NewJWTService([]byte("secret-a"))
	require.NoError(t, err)
	verifier, err := NewJWTService([]byte("secret-b"))
	require.NoError(t, err)

	token, err := issuer.CreateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	svc, err := NewJWTService([]byte("test-secret"))
	require.NoError(t, err)

	claims := jwtClaims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.VerifyToken(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.VerifyToken(hs512)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(nil)
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestPasetoService_RequiresKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("short"))
	require.Error(t, err)
}

func TestPasetoService_RejectsForeignKey(t *testing.T) {
	issuer, err := NewPasetoService([]byte(strings.Repeat("a", 32)))
	require.NoError(t, err)
	verifier, err := NewPasetoService([]byte(strings.Repeat("b", 32)))
	require.NoError(t, err)

	token, err := issuer.CreateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
