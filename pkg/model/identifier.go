package model

import (
	"strings"

	"github.com/google/uuid"
)

// IDPrefix is prepended to every identifier's uppercase canonical UUID form
// when serialised into the stand-off exchange format (spec §6).
const IDPrefix = "CATMA_"

// FormatID renders id as "CATMA_" + the uppercase canonical 8-4-4-4-12 UUID.
func FormatID(id uuid.UUID) string {
	return IDPrefix + strings.ToUpper(id.String())
}

// ParseID strips a "CATMA_" prefix, or failing that a two-character vendor
// prefix (e.g. "T", "D", "C" followed by any separator character consumed
// along with it), before parsing the remaining text as a UUID. Matches
// spec §6's identifier rule: "a two-character vendor prefix is also
// accepted by stripping its first two characters".
func ParseID(s string) (uuid.UUID, error) {
	rest, ok := strings.CutPrefix(s, IDPrefix)
	if !ok {
		if len(s) > 2 {
			rest = s[2:]
		} else {
			rest = s
		}
	}
	return uuid.Parse(rest)
}
