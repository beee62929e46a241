// Package digest provides the hashing support used to link and seal the
// blocks of the ledger.
package digest

import (
	"crypto/sha256"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Size is the number of hex characters in a digest.
const Size = 2 * sha256.Size

// =============================================================================

// Hash returns the hex encoded SHA-256 digest of the data. The result is
// always Size lowercase hex characters with no 0x prefix so the leading
// zero rule of proof of work can be applied to it directly.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return common.Bytes2Hex(hash[:])
}

// HashString returns the digest of the string's bytes.
func HashString(s string) string {
	return Hash([]byte(s))
}

// IsSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0's.
func IsSolved(hash string, difficulty uint) bool {
	if len(hash) != Size || difficulty > Size {
		return false
	}

	return strings.Count(hash[:difficulty], "0") == int(difficulty)
}

// IsDigest reports whether the string is a well formed digest.
func IsDigest(s string) bool {
	if len(s) != Size {
		return false
	}

	_, err := hexutil.Decode("0x" + s)
	return err == nil
}
