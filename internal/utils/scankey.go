package utils

import "golang.org/x/crypto/bcrypt"

// HashScanKey hashes a scanner API key with bcrypt. The hash can be
// placed in SCAN_API_KEY_HASH instead of keeping the plaintext key in
// the environment.
func HashScanKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckScanKey reports whether the presented key matches the stored
// bcrypt hash.
func CheckScanKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
