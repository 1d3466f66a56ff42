package identity

import "github.com/google/uuid"

type uuidKeyGenerator struct{}

func (uuidKeyGenerator) NewKey() string {
	return uuid.NewString()
}

// NewKeyGenerator returns the default single-use key generator. UUIDv4 gives
// 122 bits of crypto/rand entropy, which is the unguessability bar for
// activation and reset keys.
func NewKeyGenerator() KeyGenerator {
	return uuidKeyGenerator{}
}

func normalizeKeyGenerator(k KeyGenerator) KeyGenerator {
	if k == nil {
		return uuidKeyGenerator{}
	}
	return k
}
