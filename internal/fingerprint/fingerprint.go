// Package fingerprint computes exact and near-duplicate fingerprints for
// document content. All functions are pure: no I/O, no clock, no randomness,
// so fingerprints are stable across process restarts.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"math/bits"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
)

const (
	simhashBits = 64
	shingleSize = 3
)

// Compute derives both fingerprints from a document's content.
func Compute(content string) entity.Fingerprint {
	norm := Normalize(content)
	sum := md5.Sum([]byte(norm))
	return entity.Fingerprint{
		ExactHash: hex.EncodeToString(sum[:]),
		SimHash:   simhash(strings.Fields(norm)),
	}
}

// Normalize lowercases the content, strips residual markup and punctuation,
// and collapses whitespace, so cosmetic differences do not defeat exact-match
// dedup.
func Normalize(content string) string {
	if strings.Contains(content, "<") {
		content = stripMarkup(content)
	}

	var b strings.Builder
	b.Grow(len(content))
	lastSpace := true
	for _, r := range content {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(unicode.ToLower(r))
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// stripMarkup removes tags from content that still carries HTML fragments.
// The extraction stage normally hands over plain text already; this is the
// same script/style-then-text pass applied upstream.
func stripMarkup(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	doc.Find("script, style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	return doc.Text()
}

// simhash builds a 64-bit locality-sensitive signature from shingled tokens.
// Repeated shingles weight their bits proportionally, so documents sharing
// most of their phrasing land within a small Hamming distance.
func simhash(tokens []string) uint64 {
	if len(tokens) == 0 {
		return 0
	}

	var v [simhashBits]int
	shingle := func(s string) {
		h := xxhash.Sum64String(s)
		for i := 0; i < simhashBits; i++ {
			if h&(1<<uint(i)) != 0 {
				v[i]++
			} else {
				v[i]--
			}
		}
	}

	if len(tokens) < shingleSize {
		shingle(strings.Join(tokens, " "))
	} else {
		for i := 0; i+shingleSize <= len(tokens); i++ {
			shingle(strings.Join(tokens[i:i+shingleSize], " "))
		}
	}

	var out uint64
	for i := 0; i < simhashBits; i++ {
		if v[i] > 0 {
			out |= 1 << uint(i)
		}
	}
	return out
}

// HammingDistance counts the differing bits between two simhash signatures.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
