package auth

import (
	"strings"
	"testing"
	"time"

	"diskuss/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("MauvaisMDP", hash)
	req.NoError(err)
	req.False(match)
}

func TestSignupValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     SignupRequest
		wantErr bool
	}{
		{"Valid request", SignupRequest{"alice", "ComplexPass123"}, false},
		{"Username too short", SignupRequest{"al", "ComplexPass123"}, true},
		{"Username with spaces", SignupRequest{"al ice", "ComplexPass123"}, true},
		{"Password too short", SignupRequest{"alice", "Short1"}, true},
		{"Missing digit", SignupRequest{"alice", "NoDigitPassword"}, true},
		{"Missing uppercase", SignupRequest{"alice", "nouppercase123456"}, true},
		{"Missing lowercase", SignupRequest{"alice", "NOLOWERCASE123456"}, true},
		{"Password too long (edge case)", SignupRequest{"alice", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignup(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenIssuer_Generate_And_Verify(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	userID := uuid.NewString()

	// When a token is generated and verified
	token, err := issuer.Generate(userID, "alice")
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := issuer.Verify(token)
	req.NoError(err)

	// Then the claims carry the identity back
	req.Equal(userID, claims.UserID)
	req.Equal("alice", claims.Username)
}

func TestTokenIssuer_Verify_Strips_Bearer_Prefix(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Generate(uuid.NewString(), "alice")
	req.NoError(err)

	claims, err := issuer.Verify("Bearer " + token)
	req.NoError(err)
	req.Equal("alice", claims.Username)
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Generate(uuid.NewString(), "alice")
	req.NoError(err)

	_, err = issuer.Verify(token)
	req.ErrorIs(err, errors.ErrTokenExpired)
}

func TestTokenIssuer_Verify_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("another-secret", time.Hour)

	token, err := issuer.Generate(uuid.NewString(), "alice")
	req.NoError(err)

	_, err = other.Verify(token)
	req.ErrorIs(err, errors.ErrTokenInvalid)
}

func TestTokenIssuer_Verify_Garbage(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Verify("not.a.token")
	req.ErrorIs(err, errors.ErrTokenInvalid)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123")
	}
}
