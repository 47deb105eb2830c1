// Package identity derives a canonical card identity from a listing title.
//
// Titles carry up to two trailing bracketed qualifiers, read left to right
// as rarity and expansion:
//
//	リザードン [CHR]            -> {リザードン, CHR, ""}
//	ピカチュウ (SR) (SV4a)      -> {ピカチュウ, SR, SV4a}
//
// Anything the parser cannot read cleanly keeps the whole trimmed title as
// the base name.
package identity

import (
	"strings"

	"card-hunter/pkg/models"

	"golang.org/x/text/unicode/norm"
)

const maxQualifiers = 2

// closers maps each closing bracket to the openers it accepts. Input is
// NFKC-folded first, so full-width （）［］ arrive as ASCII.
var closers = map[rune]string{
	')': "(",
	']': "[",
	'】': "【",
}

var brackets = "()[]【】"

// Resolve is pure and never fails.
func Resolve(name string) models.CardIdentity {
	folded := Normalize(name)
	if folded == "" {
		return models.CardIdentity{}
	}

	rest := []rune(folded)
	var quals []string
	for len(rest) > 0 {
		last := rest[len(rest)-1]
		openers, ok := closers[last]
		if !ok {
			break
		}
		open := -1
		for i := len(rest) - 2; i >= 0; i-- {
			r := rest[i]
			if strings.ContainsRune(openers, r) {
				open = i
				break
			}
			if strings.ContainsRune(brackets, r) {
				// nested or mismatched bracket
				return models.CardIdentity{BaseName: folded}
			}
		}
		if open < 0 {
			return models.CardIdentity{BaseName: folded}
		}
		q := strings.TrimSpace(string(rest[open+1 : len(rest)-1]))
		if q == "" {
			return models.CardIdentity{BaseName: folded}
		}
		quals = append(quals, q)
		if len(quals) > maxQualifiers {
			return models.CardIdentity{BaseName: folded}
		}
		rest = []rune(strings.TrimRightFunc(string(rest[:open]), isSpace))
	}

	id := models.CardIdentity{BaseName: strings.TrimSpace(string(rest))}
	// quals were collected right to left
	switch len(quals) {
	case 1:
		id.Rarity = quals[0]
	case 2:
		id.Rarity = quals[1]
		id.Expansion = quals[0]
	}
	return id
}

// Normalize NFKC-folds s, trims it and collapses internal whitespace runs
// to a single space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
