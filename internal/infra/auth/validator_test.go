package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/polis-console/internal/domain"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims *domain.CustomClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyToken(t *testing.T) {
	key := testKey(t)
	v := NewBaseValidator(&key.PublicKey)

	token := signToken(t, key, &domain.CustomClaims{
		UserID: "user-1",
		Role:   domain.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != domain.RoleManager {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// Префикс Bearer из заголовка Authorization отрезается внутри
	if _, err := v.VerifyToken("Bearer " + token); err != nil {
		t.Fatalf("verify with Bearer prefix: %v", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	key := testKey(t)
	v := NewBaseValidator(&key.PublicKey)

	token := signToken(t, key, &domain.CustomClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	if _, err := v.VerifyToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestVerifyTokenRejectsWrongKey(t *testing.T) {
	keyA, keyB := testKey(t), testKey(t)
	v := NewBaseValidator(&keyA.PublicKey)

	token := signToken(t, keyB, &domain.CustomClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := v.VerifyToken(token); err == nil {
		t.Fatal("expected error for token signed by another key")
	}
}

// Симметричный алгоритм с публичным ключом в роли секрета — классическая
// атака подмены alg, валидатор обязан ее отклонить
func TestVerifyTokenRejectsHS256(t *testing.T) {
	key := testKey(t)
	v := NewBaseValidator(&key.PublicKey)

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &domain.CustomClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("not-a-secret"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}

	if _, err := v.VerifyToken(hs); err == nil {
		t.Fatal("expected error for HS256 token")
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	key := testKey(t)
	v := NewBaseValidator(&key.PublicKey)

	for _, in := range []string{"", "Bearer ", "not.a.token"} {
		if _, err := v.VerifyToken(in); err == nil {
			t.Fatalf("expected error for input %q", in)
		}
	}
}
