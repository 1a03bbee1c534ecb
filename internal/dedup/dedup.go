// Package dedup detects near-duplicate tips with short normalized content hashes.
//
// The hashes are a heuristic: distinct tips with similar titles may collide and
// reworded duplicates slip through. Both outcomes are acceptable for a curated feed.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"TipCurator/internal/domain"
)

// HashLength is the number of hex characters kept from the digest.
const HashLength = 12

// DefaultBodyChars is how much of the body feeds the body hash.
const DefaultBodyChars = 200

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "on": {}, "for": {}, "with": {}, "is": {}, "it": {}, "your": {},
}

// Normalize lowercases the text, collapses whitespace and drops stop words.
func Normalize(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	kept := fields[:0]
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// Hash returns the truncated MD5 of the normalized text.
func Hash(text string) string {
	sum := md5.Sum([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])[:HashLength]
}

// Fingerprint holds the two hashes computed for a tip. BodyHash is empty
// when the body normalizes to nothing.
type Fingerprint struct {
	TitleHash string
	BodyHash  string
}

// Compute hashes the display title and the first bodyChars runes of the body.
func Compute(title, body string, bodyChars int) Fingerprint {
	if bodyChars <= 0 {
		bodyChars = DefaultBodyChars
	}
	fp := Fingerprint{TitleHash: Hash(title)}

	runes := []rune(strings.TrimSpace(body))
	if len(runes) > bodyChars {
		runes = runes[:bodyChars]
	}
	if Normalize(string(runes)) != "" {
		fp.BodyHash = Hash(string(runes))
	}
	return fp
}

// Deduplicator remembers every hash it has seen, from the corpus and from accepted batch items.
type Deduplicator struct {
	bodyChars int
	seen      map[string]struct{}
}

// New seeds a deduplicator with hashes already present in the corpus.
func New(existing []string, bodyChars int) *Deduplicator {
	seen := make(map[string]struct{}, len(existing))
	for _, h := range existing {
		if h != "" {
			seen[h] = struct{}{}
		}
	}
	return &Deduplicator{bodyChars: bodyChars, seen: seen}
}

// Seen reports whether either hash of the fingerprint is known.
func (d *Deduplicator) Seen(fp Fingerprint) bool {
	if _, ok := d.seen[fp.TitleHash]; ok {
		return true
	}
	if fp.BodyHash == "" {
		return false
	}
	_, ok := d.seen[fp.BodyHash]
	return ok
}

// Add records both hashes.
func (d *Deduplicator) Add(fp Fingerprint) {
	d.seen[fp.TitleHash] = struct{}{}
	if fp.BodyHash != "" {
		d.seen[fp.BodyHash] = struct{}{}
	}
}

// Unique is an accepted verdict together with the fingerprint that admitted it.
type Unique struct {
	Verdict     domain.Verdict
	Fingerprint Fingerprint
}

// Filter keeps verdicts whose title and body hashes are both unseen, and marks them seen.
// Running Filter twice over the same batch accepts nothing the second time.
func (d *Deduplicator) Filter(verdicts []domain.Verdict) []Unique {
	out := make([]Unique, 0, len(verdicts))
	for _, v := range verdicts {
		fp := Compute(v.DisplayTitle, v.Candidate.Content, d.bodyChars)
		if d.Seen(fp) {
			continue
		}
		d.Add(fp)
		out = append(out, Unique{Verdict: v, Fingerprint: fp})
	}
	return out
}
