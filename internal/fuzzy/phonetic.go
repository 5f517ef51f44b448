package fuzzy

import "strings"

// Soundex returns the four character American Soundex code of s. Non-letters are
// ignored; a string without ASCII letters yields "".
func Soundex(s string) string {
	letters := asciiLetters(s)
	if len(letters) == 0 {
		return ""
	}

	code := []byte{letters[0]}
	prev := soundexDigit(letters[0])
	for _, c := range letters[1:] {
		d := soundexDigit(c)
		switch {
		case c == 'H' || c == 'W':
			// H and W do not separate letters with the same code.
			continue
		case d == 0:
			prev = 0
			continue
		case d != prev:
			code = append(code, d)
		}
		prev = d
		if len(code) == 4 {
			break
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

func soundexDigit(c byte) byte {
	switch c {
	case 'B', 'F', 'P', 'V':
		return '1'
	case 'C', 'G', 'J', 'K', 'Q', 'S', 'X', 'Z':
		return '2'
	case 'D', 'T':
		return '3'
	case 'L':
		return '4'
	case 'M', 'N':
		return '5'
	case 'R':
		return '6'
	}
	return 0
}

// Metaphone returns the metaphone key of s. Each word is encoded separately and the
// keys are joined with a single space.
func Metaphone(s string) string {
	var keys []string
	for _, word := range strings.Fields(s) {
		if k := metaphoneWord(asciiLetters(word)); k != "" {
			keys = append(keys, k)
		}
	}
	return strings.Join(keys, " ")
}

func metaphoneWord(w []byte) string {
	if len(w) == 0 {
		return ""
	}

	at := func(i int) byte {
		if i < 0 || i >= len(w) {
			return 0
		}
		return w[i]
	}

	var out strings.Builder
	start := 0

	switch {
	case len(w) > 1 && (string(w[:2]) == "AE" || string(w[:2]) == "GN" || string(w[:2]) == "KN" ||
		string(w[:2]) == "PN" || string(w[:2]) == "WR"):
		start = 1
	case w[0] == 'X':
		out.WriteByte('S')
		start = 1
	case len(w) > 1 && string(w[:2]) == "WH":
		out.WriteByte('W')
		start = 2
	}

	for i := start; i < len(w); i++ {
		c := w[i]
		if c != 'C' && i > start && at(i-1) == c {
			continue
		}
		next, prev := at(i+1), at(i-1)

		switch c {
		case 'A', 'E', 'I', 'O', 'U':
			if i == start {
				out.WriteByte(c)
			}
		case 'B':
			if !(prev == 'M' && i == len(w)-1) {
				out.WriteByte('B')
			}
		case 'C':
			switch {
			case next == 'I' && at(i+2) == 'A':
				out.WriteByte('X')
			case next == 'H':
				if prev == 'S' {
					out.WriteByte('K')
				} else {
					out.WriteByte('X')
				}
				i++
			case next == 'I' || next == 'E' || next == 'Y':
				if prev != 'S' {
					out.WriteByte('S')
				}
			default:
				out.WriteByte('K')
			}
		case 'D':
			if next == 'G' && isFrontVowel(at(i+2)) {
				out.WriteByte('J')
				i++
			} else {
				out.WriteByte('T')
			}
		case 'G':
			switch {
			case next == 'H' && i+2 < len(w) && !isVowel(at(i+2)):
			case next == 'N' && (i+2 == len(w) || (at(i+2) == 'E' && at(i+3) == 'D' && i+4 == len(w))):
			case isFrontVowel(next) && prev != 'G':
				out.WriteByte('J')
			default:
				out.WriteByte('K')
			}
		case 'H':
			if isVowel(next) && !strings.ContainsRune("CGPST", rune(prev)) {
				out.WriteByte('H')
			}
		case 'K':
			if prev != 'C' {
				out.WriteByte('K')
			}
		case 'P':
			if next == 'H' {
				out.WriteByte('F')
			} else {
				out.WriteByte('P')
			}
		case 'Q':
			out.WriteByte('K')
		case 'S':
			switch {
			case next == 'H':
				out.WriteByte('X')
				i++
			case next == 'I' && (at(i+2) == 'O' || at(i+2) == 'A'):
				out.WriteByte('X')
			default:
				out.WriteByte('S')
			}
		case 'T':
			switch {
			case next == 'I' && (at(i+2) == 'O' || at(i+2) == 'A'):
				out.WriteByte('X')
			case next == 'H':
				out.WriteByte('0')
				i++
			case next == 'C' && at(i+2) == 'H':
			default:
				out.WriteByte('T')
			}
		case 'V':
			out.WriteByte('F')
		case 'W', 'Y':
			if isVowel(next) {
				out.WriteByte(c)
			}
		case 'X':
			out.WriteString("KS")
		case 'Z':
			out.WriteByte('S')
		case 'F', 'J', 'L', 'M', 'N', 'R':
			out.WriteByte(c)
		}
	}
	return out.String()
}

// PhoneticMatch reports whether a and b share a non-empty metaphone key or, failing
// that, a non-empty soundex code.
func PhoneticMatch(a, b string) bool {
	if ma, mb := Metaphone(a), Metaphone(b); ma != "" && ma == mb {
		return true
	}
	sa, sb := Soundex(a), Soundex(b)
	return sa != "" && sa == sb
}

func asciiLetters(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			out = append(out, c)
		}
	}
	return out
}

func isVowel(c byte) bool {
	return c == 'A' || c == 'E' || c == 'I' || c == 'O' || c == 'U'
}

func isFrontVowel(c byte) bool {
	return c == 'E' || c == 'I' || c == 'Y'
}
