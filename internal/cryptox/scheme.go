// Package cryptox implements the one-way secret hashing schemes accounts are
// stored with. New digests always use argon2id; bcrypt is accepted on
// comparison so rows imported from older systems keep working.
package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// SchemeBcrypt tags digests whose hash is a bcrypt string with embedded salt.
const SchemeBcrypt = "bcrypt"

const argon2Prefix = "argon2id"

// Parameter bounds, applied to configured parameters and stored rows alike.
const (
	MaxArgon2MemoryKiB = 1 << 20
	MaxArgon2Time      = 16
	MinArgon2KeyLen    = 16
	MaxArgon2KeyLen    = 1024
)

var ErrInvalidScheme = errors.New("invalid hashing scheme")

// Argon2Params are the argon2id cost parameters. KeyLen and SaltLen apply
// when hashing; on comparison the key length comes from the stored hash.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

// DefaultArgon2Params follows the RFC 9106 second recommended option,
// trimmed to one pass.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

// Validate rejects parameter sets argon2 would refuse or that are too weak
// to be worth storing.
func (p Argon2Params) Validate() error {
	if err := p.validateCost(); err != nil {
		return err
	}
	switch {
	case p.KeyLen < MinArgon2KeyLen || p.KeyLen > MaxArgon2KeyLen:
		return fmt.Errorf("%w: key length must be in [%d, %d]", ErrInvalidScheme, MinArgon2KeyLen, MaxArgon2KeyLen)
	case p.SaltLen < 8:
		return fmt.Errorf("%w: salt length must be >= 8", ErrInvalidScheme)
	}
	return nil
}

// validateCost checks the parameters that decide how much work and memory
// one derivation takes.
func (p Argon2Params) validateCost() error {
	switch {
	case p.Time < 1 || p.Time > MaxArgon2Time:
		return fmt.Errorf("%w: time must be in [1, %d]", ErrInvalidScheme, MaxArgon2Time)
	case p.Threads < 1:
		return fmt.Errorf("%w: threads must be >= 1", ErrInvalidScheme)
	case p.MemoryKiB < 8*uint32(p.Threads):
		return fmt.Errorf("%w: memory must be >= 8*threads KiB", ErrInvalidScheme)
	case p.MemoryKiB > MaxArgon2MemoryKiB:
		return fmt.Errorf("%w: memory must be <= %d KiB", ErrInvalidScheme, MaxArgon2MemoryKiB)
	}
	return nil
}

// String encodes the cost parameters in PHC style, e.g.
// "argon2id$v=19$m=65536,t=1,p=4". Salt and hash are stored separately.
func (p Argon2Params) String() string {
	return fmt.Sprintf("%s$v=%d$m=%d,t=%d,p=%d", argon2Prefix, argon2.Version, p.MemoryKiB, p.Time, p.Threads)
}

// ParseArgon2Params decodes a string produced by Argon2Params.String and
// rejects cost parameters outside the bounds Validate enforces.
func ParseArgon2Params(s string) (Argon2Params, error) {
	var (
		p       Argon2Params
		version int
		threads uint32
	)
	n, err := fmt.Sscanf(s, argon2Prefix+"$v=%d$m=%d,t=%d,p=%d", &version, &p.MemoryKiB, &p.Time, &threads)
	if err != nil || n != 4 {
		return Argon2Params{}, fmt.Errorf("%w: %q", ErrInvalidScheme, s)
	}
	if version != argon2.Version {
		return Argon2Params{}, fmt.Errorf("%w: unsupported argon2 version %d", ErrInvalidScheme, version)
	}
	if threads < 1 || threads > 255 {
		return Argon2Params{}, fmt.Errorf("%w: threads out of range", ErrInvalidScheme)
	}
	p.Threads = uint8(threads)
	if err := p.validateCost(); err != nil {
		return Argon2Params{}, err
	}
	return p, nil
}
