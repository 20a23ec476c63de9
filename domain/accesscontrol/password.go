package accesscontrol

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"unicode"

	"golang.org/x/crypto/scrypt"

	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
)

// scrypt cost parameters, matching original_source/core_banking/rbac.py's
// hashlib.scrypt(n=16384, r=8, p=1) call.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

func randomSalt() (string, error) {
	buf := make([]byte, saltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashScrypt derives a scrypt hash for password using salt (both hex strings).
func hashScrypt(password, salt string) (string, error) {
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return "", err
	}
	key, err := scrypt.Key([]byte(password), saltBytes, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// hashLegacySHA256 reproduces the legacy verifier this core still accepts:
// SHA-256(password + salt). Only used to validate pre-migration hashes;
// never used to create a new hash.
func hashLegacySHA256(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// NewPasswordHash creates a fresh scrypt hash for password, to be stored on
// User.PasswordHash/PasswordSalt with Algorithm = "scrypt".
func NewPasswordHash(password string) (hash, salt string, err error) {
	salt, err = randomSalt()
	if err != nil {
		return "", "", err
	}
	hash, err = hashScrypt(password, salt)
	if err != nil {
		return "", "", err
	}
	return hash, salt, nil
}

// VerifyPassword checks password against the stored hash. It returns
// (ok, needsRehash) — needsRehash is true when the stored hash used the
// legacy SHA-256 verifier and should be transparently upgraded to scrypt
// by the caller on a successful verification, per rbac.py's
// _verify_password.
func VerifyPassword(password string, u User) (ok bool, needsRehash bool) {
	switch u.PasswordAlgorithm {
	case "scrypt", "":
		computed, err := hashScrypt(password, u.PasswordSalt)
		if err != nil {
			return false, false
		}
		return subtle.ConstantTimeCompare([]byte(computed), []byte(u.PasswordHash)) == 1, false
	case "sha256-legacy":
		computed := hashLegacySHA256(password, u.PasswordSalt)
		if subtle.ConstantTimeCompare([]byte(computed), []byte(u.PasswordHash)) == 1 {
			return true, true
		}
		return false, false
	default:
		return false, false
	}
}

// ValidatePasswordPolicy enforces the character-class and length rules
// from policy, returning a PolicyError naming the first violation found.
func ValidatePasswordPolicy(password string, policy PasswordPolicy) error {
	if len(password) < policy.MinLength {
		return nexumerrors.PasswordPolicy(fmt.Sprintf("password must be at least %d characters", policy.MinLength))
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if policy.RequireUpper && !hasUpper {
		return nexumerrors.PasswordPolicy("password must contain an uppercase letter")
	}
	if policy.RequireLower && !hasLower {
		return nexumerrors.PasswordPolicy("password must contain a lowercase letter")
	}
	if policy.RequireDigit && !hasDigit {
		return nexumerrors.PasswordPolicy("password must contain a digit")
	}
	if policy.RequireSpecial && !hasSpecial {
		return nexumerrors.PasswordPolicy("password must contain a special character")
	}
	return nil
}

// InHistory reports whether hash appears in history.
func InHistory(hash string, history []string) bool {
	for _, h := range history {
		if h == hash {
			return true
		}
	}
	return false
}

// PushHistory appends hash to history, trimming to at most size entries.
func PushHistory(history []string, hash string, size int) []string {
	history = append(history, hash)
	if len(history) > size {
		history = history[len(history)-size:]
	}
	return history
}
