// Package naming derives canonical host identifiers from roster fields.
//
// The slug is used as the container hostname, the DNS label, and the key
// in every log line, so it must be lowercase ASCII and DNS-safe. The
// derivation is pure: the same inputs always produce the same slug.
package naming

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold maps letters that do not decompose into base+combining-mark
// form and would otherwise be dropped entirely.
var asciiFold = strings.NewReplacer(
	"æ", "ae", "ø", "o", "ß", "ss", "þ", "th", "ð", "d",
	"đ", "d", "ł", "l", "œ", "oe",
)

// stripMarks removes combining marks after NFD decomposition, turning
// é into e, å into a, and so on. A fresh transformer per call: chained
// transformers carry state and must not be shared.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Slug returns the canonical identifier for a roster entry. The alias is
// preferred when present; otherwise the slug is composed from class,
// first name, and last name. An entry whose fields normalize to nothing
// is an error rather than an empty hostname.
func Slug(class, firstName, lastName, alias string) (string, error) {
	raw := strings.TrimSpace(alias)
	if raw == "" {
		raw = fmt.Sprintf("%s-%s-%s",
			strings.TrimSpace(class),
			strings.TrimSpace(firstName),
			strings.TrimSpace(lastName))
	}

	slug := normalize(raw)
	if slug == "" {
		return "", fmt.Errorf("entry %q/%q/%q (alias %q) normalizes to an empty slug",
			class, firstName, lastName, alias)
	}
	return slug, nil
}

// PublicName returns the fully qualified subdomain for a slug.
func PublicName(slug, domainSuffix string) string {
	return slug + "." + domainSuffix
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), "-")
	s = asciiFold.Replace(s)
	if folded, _, err := transform.String(stripMarks(), s); err == nil {
		s = folded
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
