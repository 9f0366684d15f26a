package credentials

import "golang.org/x/crypto/bcrypt"

// PasswordHasher is the pluggable hashing strategy behind the credential
// manager.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports whether the password matches the stored hash.
	Verify(password, hash string) bool
}

// BcryptHasher hashes passwords with bcrypt at the default cost.
type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
