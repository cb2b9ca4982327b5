package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/credgate/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Digest is the stored form of a secret.
type Digest struct {
	Scheme string
	Salt   []byte
	Hash   []byte
}

// Hasher produces and checks digests. It is immutable after construction
// and safe for concurrent use.
type Hasher struct {
	params Argon2Params
	dummy  Digest
}

// NewHasher validates p and prepares a dummy digest of a random secret,
// used to spend the same work when there is no real digest to compare with.
func NewHasher(p Argon2Params) (*Hasher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	h := &Hasher{params: p}

	secret := common.GenerateRandByteArray(32)
	dummy, err := h.Hash(secret)
	common.WipeByteArray(secret)
	if err != nil {
		return nil, err
	}
	h.dummy = dummy

	return h, nil
}

func (h *Hasher) Params() Argon2Params {
	return h.params
}

// Dummy returns the digest of an unknown random secret. No input matches it.
func (h *Hasher) Dummy() Digest {
	return h.dummy
}

// Hash derives an argon2id digest of secret with a fresh random salt.
func (h *Hasher) Hash(secret []byte) (Digest, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return Digest{}, fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey(secret, salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)

	return Digest{Scheme: h.params.String(), Salt: salt, Hash: key}, nil
}

// Compare reports whether secret matches d. The final equality check is
// constant time. A digest with an unreadable or out-of-bounds scheme, a
// short hash or an empty salt is replaced by the dummy so the caller still pays for one derivation.
func (h *Hasher) Compare(secret []byte, d Digest) bool {
	if d.Scheme == SchemeBcrypt {
		return bcrypt.CompareHashAndPassword(d.Hash, secret) == nil
	}

	valid := true
	p, err := ParseArgon2Params(d.Scheme)
	if err != nil || len(d.Hash) < MinArgon2KeyLen || len(d.Hash) > MaxArgon2KeyLen || len(d.Salt) == 0 {
		valid = false
		p, d = h.params, h.dummy
	}

	key := argon2.IDKey(secret, d.Salt, p.Time, p.MemoryKiB, p.Threads, uint32(len(d.Hash)))
	match := subtle.ConstantTimeCompare(key, d.Hash) == 1

	return valid && match
}

// HashBcrypt produces a bcrypt digest. It exists for importing accounts
// into systems that still expect bcrypt; Hash is preferred.
func HashBcrypt(secret []byte, cost int) (Digest, error) {
	hash, err := bcrypt.GenerateFromPassword(secret, cost)
	if err != nil {
		return Digest{}, err
	}
	return Digest{Scheme: SchemeBcrypt, Hash: hash}, nil
}
