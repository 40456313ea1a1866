package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/palmgate/leadgen-cli/internal/model"
)

// Dedupe assigns each lead its identity key and collapses duplicates within
// and across sources. First-seen wins; survivor order matches input order.
// Leads that already carry a key keep it, so deduping twice is a no-op.
func Dedupe(leads []model.Lead) []model.Lead {
	seen := make(map[string]bool, len(leads))
	out := make([]model.Lead, 0, len(leads))

	for _, lead := range leads {
		if lead.IdentityKey == "" {
			lead.IdentityKey = identityKey(lead)
		}
		if seen[lead.IdentityKey] {
			continue
		}
		seen[lead.IdentityKey] = true
		out = append(out, lead)
	}
	return out
}

// identityKey derives the dedup key in decreasing order of cross-source
// reliability: phone, then email, then the source-scoped listing URL.
// Leads with no usable key get a synthetic hash key: internally consistent
// for analytics, never matched against future leads.
func identityKey(lead model.Lead) string {
	if phone := normalizePhone(lead.Attr(model.AttrPhone)); phone != "" {
		return "phone:" + phone
	}
	if email := normalizeEmail(lead.Attr(model.AttrEmail)); email != "" {
		return "email:" + email
	}
	if url := strings.TrimSpace(lead.Attr(model.AttrListingURL)); url != "" {
		return "listing:" + lead.Source + ":" + strings.ToLower(url)
	}
	return "synthetic:" + syntheticKey(lead)
}

// normalizePhone strips everything but digits. Numbers with fewer than seven
// digits are too short to identify a contact and degrade to "no usable key".
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() < 7 {
		return ""
	}
	return b.String()
}

// normalizeEmail trims, lower-cases and strips diacritics so the same
// address spelled with accents on one portal still collapses.
func normalizeEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.Contains(s, "@") {
		return ""
	}
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripper, s); err == nil {
		s = stripped
	}
	return s
}

// syntheticKey hashes source plus all raw attributes in sorted key order.
func syntheticKey(lead model.Lead) string {
	keys := make([]string, 0, len(lead.Attributes))
	for k := range lead.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	h.Write([]byte(lead.Source))
	for _, k := range keys {
		h.Write([]byte("\x00" + k + "\x00" + lead.Attributes[k]))
	}
	return hex.EncodeToString(h.Sum(nil))
}
