package jwts

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GetToken(10086, "player", TokenTypeAccess, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}

	claims, err := ParseAccessToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != 10086 {
		t.Fatalf("userId expected 10086, got %d", claims.UserID)
	}
	if claims.Role != "player" {
		t.Fatalf("role expected player, got %s", claims.Role)
	}
}

func TestRefreshTokenRejectedOnAccessPath(t *testing.T) {
	token, err := GetToken(1, "player", TokenTypeRefresh, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if _, err := ParseAccessToken(token, testSecret); err != ErrNotAccessType {
		t.Fatalf("expected ErrNotAccessType, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GetToken(1, "player", TokenTypeAccess, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if _, err := ParseToken(token, testSecret); err == nil {
		t.Fatalf("expired token should be rejected")
	}
}

func TestWrongSigningMethodRejected(t *testing.T) {
	// none 算法伪造的令牌必须被拒绝
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &CustomClaims{UserID: 1, Type: TokenTypeAccess})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ParseToken(signed, testSecret); err == nil {
		t.Fatalf("none-signed token should be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := GetToken(1, "player", TokenTypeAccess, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if _, err := ParseToken(token, "other-secret"); err == nil {
		t.Fatalf("token signed with another secret should be rejected")
	}
}
