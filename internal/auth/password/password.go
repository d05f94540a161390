// Package password hashes user passwords and recovery passcodes with Argon2id
// in the PHC string format.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

// Params are the Argon2id costs encoded into every hash.
type Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// Default is used for new hashes. Hashes made with other costs still verify
// and report NeedsRehash.
var Default = Params{Memory: 64 * 1024, Time: 1, Threads: 4, KeyLen: 32, SaltLen: 16}

var b64 = base64.RawStdEncoding

func Hash(secret string) (string, error) {
	return Default.Hash(secret)
}

func (p Params) Hash(secret string) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(secret), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether secret matches encoded. Malformed hashes never match.
func Verify(secret, encoded string) bool {
	h, err := decode(encoded)
	if err != nil {
		return false
	}
	check := argon2.IDKey([]byte(secret), h.salt, h.params.Time, h.params.Memory, h.params.Threads, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(h.key, check) == 1
}

// NeedsRehash reports whether encoded was made with costs other than Default.
func NeedsRehash(encoded string) bool {
	h, err := decode(encoded)
	if err != nil {
		return true
	}
	return h.params != Default
}

type decoded struct {
	params Params
	salt   []byte
	key    []byte
}

func decode(encoded string) (decoded, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return decoded{}, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return decoded{}, ErrMalformedHash
	}

	var h decoded
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Time, &h.params.Threads); err != nil || n != 3 {
		return decoded{}, ErrMalformedHash
	}
	if h.params.Memory == 0 || h.params.Time == 0 || h.params.Threads == 0 {
		return decoded{}, ErrMalformedHash
	}

	var err error
	if h.salt, err = b64.DecodeString(parts[4]); err != nil || len(h.salt) == 0 {
		return decoded{}, ErrMalformedHash
	}
	if h.key, err = b64.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return decoded{}, ErrMalformedHash
	}
	h.params.SaltLen = len(h.salt)
	h.params.KeyLen = uint32(len(h.key))
	return h, nil
}
