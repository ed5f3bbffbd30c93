// Package identifier validates namespace and package names and computes
// their confusable skeletons so visually identical names cannot be used to
// impersonate an existing namespace or package.
package identifier

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// disallowedRunes blocks invisible and bidi-control characters that are not
// caught by unicode.IsControl but are routinely used in homoglyph and
// trojan-source style attacks. Each key is the literal (invisible)
// character, except the byte order mark, which Go source cannot hold
// literally and is written as its code point; the trailing comment on each line
// names the character.
var disallowedRunes = map[rune]bool{
	'­': true, // soft hyphen
	'᠎': true, // Mongolian vowel separator
	'​': true, // zero width space
	'‌': true, // zero width non-joiner
	'‍': true, // zero width joiner
	'‎': true, // left-to-right mark
	'‏': true, // right-to-left mark
	'‪': true, // LRE
	'‫': true, // RLE
	'‬': true, // PDF
	'‭': true, // LRO
	'‮': true, // RLO
	'⁠': true, // word joiner
	'⁡': true, // function application
	'⁢': true, // invisible times
	'⁣': true, // invisible separator
	'⁤': true, // invisible plus
	'⁦': true, // LRI
	'⁧': true, // RLI
	'⁨': true, // FSI
	'⁩': true, // PDI
	0xFEFF: true, // byte order mark / zero width no-break space
	'ㅤ': true, // HANGUL FILLER
	'ﾠ': true, // HALFWIDTH HANGUL FILLER
	'͏': true, // combining grapheme joiner
}

// Validate reports whether s is an acceptable namespace or package name: every
// character is an ASCII digit, '-', or a letter, mark or non-ASCII digit
// that is not control, not an explicitly disallowed invisible/bidi
// character, and not emoji or other symbol/punctuation outside '-'; and the
// whole string is single-script (ignoring the Common and Inherited script
// classes, and the ASCII digits and '-' that every script shares).
func Validate(s string) bool {
	if s == "" {
		return false
	}

	scriptName := ""

	for _, r := range s {
		if disallowedRunes[r] {
			return false
		}
		if unicode.IsControl(r) {
			return false
		}

		switch {
		case r == '-':
			continue
		case r >= '0' && r <= '9':
			continue
		case unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r):
			// fall through to script check below
		default:
			// punctuation (other than '-'), symbols, emoji, spaces: reject
			return false
		}

		name, ok := runeScript(r)
		if !ok {
			return false
		}
		if name == "Common" || name == "Inherited" {
			continue
		}
		if scriptName == "" {
			scriptName = name
			continue
		}
		if name != scriptName {
			return false
		}
	}

	return true
}

// runeScript returns the name of the first Unicode script (from
// unicode.Scripts) that contains r.
func runeScript(r rune) (string, bool) {
	for name, rt := range unicode.Scripts {
		if unicode.Is(rt, r) {
			return name, true
		}
	}
	return "", false
}

// Skeleton computes the confusable skeleton of s: NFD-decompose, then fold
// every rune through the confusables prototype table, then recompose. Two
// strings with the same skeleton are considered visually indistinguishable
// and collide for uniqueness purposes (spec.md §3, §4.A).
func Skeleton(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if proto, ok := confusablePrototype[r]; ok {
			b.WriteString(proto)
			continue
		}
		if unicode.Is(unicode.Mn, r) {
			// Combining marks fold away once their base has been
			// substituted, so accented Latin folds onto bare Latin.
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return norm.NFC.String(b.String())
}

// confusablePrototype is a curated subset of the Unicode confusables.txt
// mapping (UTS #39): visually similar characters folded to a single ASCII
// prototype. It is not the full confusables table — no maintained Go module
// ships that — but it covers the Cyrillic/Greek/Latin lookalikes used in
// typical namespace/package impersonation attacks, including the characters
// spec.md's test scenarios exercise directly (U+03BF GREEK SMALL LETTER
// OMICRON, U+0430 CYRILLIC SMALL LETTER A).
var confusablePrototype = map[rune]string{
	// Cyrillic -> Latin
	'а': "a", 'А': "A", // а А
	'е': "e", 'Е': "E", // е Е
	'о': "o", 'О': "O", // о О
	'р': "p", 'Р': "P", // р Р
	'с': "c", 'С': "C", // с С
	'у': "y", 'У': "Y", // у У
	'х': "x", 'Х': "X", // х Х
	'і': "i", 'І': "I", // і І
	'ѕ': "s", 'Ѕ': "S", // ѕ Ѕ
	'ј': "j", 'Ј': "J", // ј Ј
	'ӏ': "l",                // ӏ
	'н': "h",                // н (visually close to h in some fonts)
	'т': "t",                // т
	'в': "b",                // в
	'к': "k",                // к
	'м': "m",                // м

	// Greek -> Latin
	'α': "a", 'Α': "A", // α Α
	'ο': "o", 'Ο': "O", // ο Ο
	'ρ': "p", 'Ρ': "P", // ρ Ρ
	'ν': "v", 'Ν': "N", // ν Ν
	'υ': "u", 'Υ': "Y", // υ Υ
	'ι': "i", 'Ι': "I", // ι Ι
	'κ': "k", 'Κ': "K", // κ Κ
	'χ': "x", 'Χ': "X", // χ Χ
	'η': "n",                // η
	'ε': "e",                // ε
	'τ': "t",                // τ
	'β': "b",                // β

	// Fullwidth Latin -> ASCII
	'ａ': "a", 'Ａ': "A", // ａ Ａ
	'ｏ': "o", 'Ｏ': "O", // ｏ Ｏ

	// Digits that visually stand in for letters
	'١': "1", // Arabic-Indic digit one
	'۱': "1", // Extended Arabic-Indic digit one

	// Hyphen/dash lookalikes folded onto '-'
	'‐': "-", '‑': "-", '‒': "-",
	'–': "-", '—': "-", '−': "-",
}
