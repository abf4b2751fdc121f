package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidHash = errors.New("password: invalid hash")

type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) (bool, error)
}

var (
	_ Hasher = (*Argon2)(nil)
	_ Hasher = (*Bcrypt)(nil)
	_ Hasher = (*Multi)(nil)
)

type Argon2 struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// NewArgon2 uses m=64MiB, t=2, p=1, the parameters of the PHC strings already
// stored by the previous deployment.
func NewArgon2() *Argon2 {
	return &Argon2{
		Memory:      64 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (a *Argon2) Hash(plain string) (string, error) {
	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plain), salt, a.Iterations, a.Memory, a.Parallelism, a.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2) Verify(plain, digest string) (bool, error) {
	params, salt, key, err := decodeArgon2(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(plain), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, computed) == 1, nil
}

func decodeArgon2(digest string) (*Argon2, []byte, []byte, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: version: %v", ErrInvalidHash, err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	params := &Argon2{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: key: %v", ErrInvalidHash, err)
	}

	return params, salt, key, nil
}

type Bcrypt struct {
	Cost int
}

func NewBcrypt() *Bcrypt {
	return &Bcrypt{Cost: bcrypt.DefaultCost}
}

func (b *Bcrypt) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), b.Cost)
	if err != nil {
		return "", fmt.Errorf("hashing password error: %w", err)
	}
	return string(hashed), nil
}

func (b *Bcrypt) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
}

// Multi hashes with Primary and verifies any digest it recognises by prefix,
// so switching algorithms keeps existing users able to log in.
type Multi struct {
	Primary Hasher
	argon2  *Argon2
	bcrypt  *Bcrypt
}

// New returns a Multi whose primary algorithm is "argon2id" or "bcrypt".
func New(algorithm string) (*Multi, error) {
	m := &Multi{argon2: NewArgon2(), bcrypt: NewBcrypt()}
	switch algorithm {
	case "argon2id", "":
		m.Primary = m.argon2
	case "bcrypt":
		m.Primary = m.bcrypt
	default:
		return nil, fmt.Errorf("unknown password algorithm %q", algorithm)
	}
	return m, nil
}

func (m *Multi) Hash(plain string) (string, error) {
	return m.Primary.Hash(plain)
}

func (m *Multi) Verify(plain, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return m.argon2.Verify(plain, digest)
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return m.bcrypt.Verify(plain, digest)
	default:
		return false, ErrInvalidHash
	}
}
