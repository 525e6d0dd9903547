package qrcode

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	idPrefix         = "AGRI"
	fallbackFragment = "PRD"
	fragmentLen      = 6
	suffixLen        = 4
	suffixAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator builds traceability ids of the form
// AGRI-<FRAGMENT>-<unix-ms>-<RAND4>. Ids are not checked for uniqueness.
type Generator struct {
	Now  func() time.Time
	Rand func(n int) int
}

func NewGenerator() *Generator {
	return &Generator{Now: time.Now, Rand: rand.IntN}
}

func (g *Generator) TraceabilityID(productName string) string {
	suffix := make([]byte, suffixLen)
	for i := range suffix {
		suffix[i] = suffixAlphabet[g.Rand(len(suffixAlphabet))]
	}
	return fmt.Sprintf("%s-%s-%d-%s", idPrefix, NameFragment(productName), g.Now().UnixMilli(), suffix)
}

// NameFragment strips diacritics, upper-cases and keeps the first six
// ASCII alphanumerics of name.
func NameFragment(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(plain) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == fragmentLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return fallbackFragment
	}
	return b.String()
}
