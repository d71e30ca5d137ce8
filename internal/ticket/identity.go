// Package ticket allocates ticket identities: the human-readable
// ticket number printed on the PDF and the random token that doubles
// as the validation credential and the PDF file-naming key.
package ticket

import (
	"fmt"

	"github.com/google/uuid"
)

// Number derives the printable ticket number from the order id and the
// 0-based unit index. The order id is zero-padded to at least four
// digits and the suffix is 1-based, e.g. Number(350, 0) == "0350-1".
// Numbers are deterministic and collision-free within one order only;
// they carry no security weight.
func Number(orderID uint64, unitIdx int) string {
	return fmt.Sprintf("%04d-%d", orderID, unitIdx+1)
}

// NewToken returns a fresh random token for a ticket unit. Tokens are
// UUIDv4 strings backed by crypto/rand: they must not be guessable or
// derivable from the order, because holding the token is the only
// credential needed to validate a ticket or fetch its PDF.
func NewToken() string {
	return uuid.NewString()
}
