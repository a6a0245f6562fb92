// Package validator checks opaque wallet address identifiers.
//
// Addresses are base58-encoded public keys on the wire. The ledger treats
// them as opaque strings; only the service boundary validates shape before
// creating channels.
package validator

// Base58 alphabet: no 0, O, I, or l.
const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const (
	minLength = 32
	maxLength = 44
)

var valid [256]bool

func init() {
	for i := 0; i < len(alphabet); i++ {
		valid[alphabet[i]] = true
	}
}

// IsValid reports whether address looks like a base58 public key.
func IsValid(address string) bool {
	if len(address) < minLength || len(address) > maxLength {
		return false
	}
	for i := 0; i < len(address); i++ {
		if !valid[address[i]] {
			return false
		}
	}
	return true
}
