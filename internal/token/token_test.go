package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("super-secret"), time.Hour)
	raw, err := iss.Issue(42, "")
	require.NoError(t, err)

	id, err := iss.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.UserID)
	assert.Equal(t, RoleUser, id.Role)
	assert.False(t, id.IsAdmin())
	assert.Equal(t, []byte("super-secret"), iss.SigningKey())
}

func TestVerify_AdminRole(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("k"), time.Hour)
	raw, err := iss.Issue(1, RoleAdmin)
	require.NoError(t, err)

	id, err := iss.Verify(raw)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("k"), time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := iss.Issue(7, "")
	require.NoError(t, err)

	_, err = NewIssuer([]byte("k"), time.Minute).Verify(raw)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	iss := NewIssuer([]byte("right"), time.Hour)
	other, err := NewIssuer([]byte("wrong"), time.Hour).Issue(7, "")
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"garbage":      "not.a.jwt",
		"empty":        "",
		"wrong secret": other,
	} {
		_, err := iss.Verify(raw)
		assert.True(t, errors.Is(err, ErrMalformed), "%s: got %v", name, err)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	claims := jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer([]byte("k"), time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIdentityFromToken(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		claims jwt.MapClaims
		want   int64
		ok     bool
	}{
		"float":    {jwt.MapClaims{"user_id": float64(5)}, 5, true},
		"string":   {jwt.MapClaims{"user_id": "9"}, 9, true},
		"bad str":  {jwt.MapClaims{"user_id": "x"}, 0, false},
		"missing":  {jwt.MapClaims{}, 0, false},
		"negative": {jwt.MapClaims{"user_id": float64(-1)}, 0, false},
	}
	for name, tc := range cases {
		id, err := IdentityFromToken(&jwt.Token{Claims: tc.claims})
		if tc.ok {
			require.NoError(t, err, name)
			assert.Equal(t, tc.want, id.UserID, name)
		} else {
			assert.ErrorIs(t, err, ErrMalformed, name)
		}
	}
}
