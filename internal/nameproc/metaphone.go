package nameproc

import "strings"

// DoubleMetaphone computes the primary Double Metaphone code (Lawrence
// Philips' algorithm) for a single ASCII alphabetic token. Only the primary
// code is returned; the secondary/alternate code is not needed by the
// matching pipeline this package feeds (spec §4.1 only consumes one code
// per token).
func DoubleMetaphone(input string) string {
	s := strings.ToUpper(input)
	n := len(s)
	if n == 0 {
		return ""
	}

	isVowel := func(i int) bool {
		if i < 0 || i >= n {
			return false
		}
		switch s[i] {
		case 'A', 'E', 'I', 'O', 'U', 'Y':
			return true
		}
		return false
	}
	at := func(i int) byte {
		if i < 0 || i >= n {
			return 0
		}
		return s[i]
	}
	stringAt := func(start, length int, list ...string) bool {
		if start < 0 || start+length > n {
			return false
		}
		sub := s[start : start+length]
		for _, l := range list {
			if sub == l {
				return true
			}
		}
		return false
	}

	var result strings.Builder
	current := 0

	// Skip certain silent letter combinations at the start of the word.
	if stringAt(0, 2, "GN", "KN", "PN", "WR", "PS") {
		current++
	}
	if at(0) == 'X' {
		// X at start pronounced like S ("Xavier" -> S)
		result.WriteByte('S')
		current++
	}
	if stringAt(0, 2, "WH") {
		current += 2
	}

	maxLen := 4
	for current < n && result.Len() < maxLen {
		c := at(current)

		if isVowel(current) {
			if current == 0 {
				result.WriteByte('A')
			}
			current++
			continue
		}

		switch c {
		case 'B':
			result.WriteByte('P')
			if at(current+1) == 'B' {
				current += 2
			} else {
				current++
			}
		case 'C':
			if stringAt(current, 3, "CIA") {
				result.WriteByte('X')
				current += 3
			} else if stringAt(current, 2, "CH") {
				result.WriteByte('X')
				current += 2
			} else if stringAt(current, 2, "CI", "CE", "CY") {
				result.WriteByte('S')
				current += 2
			} else {
				result.WriteByte('K')
				if at(current+1) == 'C' {
					current += 2
				} else {
					current++
				}
			}
		case 'D':
			if stringAt(current, 2, "DG") && stringAt(current+2, 1, "I", "E", "Y") {
				result.WriteByte('J')
				current += 3
			} else {
				result.WriteByte('T')
				if at(current+1) == 'D' {
					current += 2
				} else {
					current++
				}
			}
		case 'F':
			result.WriteByte('F')
			if at(current+1) == 'F' {
				current += 2
			} else {
				current++
			}
		case 'G':
			if at(current+1) == 'H' {
				result.WriteByte('K')
				current += 2
			} else if stringAt(current, 2, "GI", "GE", "GY") {
				result.WriteByte('J')
				current += 2
			} else {
				result.WriteByte('K')
				if at(current+1) == 'G' {
					current += 2
				} else {
					current++
				}
			}
		case 'H':
			if isVowel(current - 1) && isVowel(current+1) {
				result.WriteByte('H')
			}
			current++
		case 'J':
			result.WriteByte('J')
			current++
		case 'K':
			result.WriteByte('K')
			if at(current+1) == 'K' {
				current += 2
			} else {
				current++
			}
		case 'L':
			result.WriteByte('L')
			if at(current+1) == 'L' {
				current += 2
			} else {
				current++
			}
		case 'M':
			result.WriteByte('M')
			if at(current+1) == 'M' {
				current += 2
			} else {
				current++
			}
		case 'N':
			result.WriteByte('N')
			if at(current+1) == 'N' {
				current += 2
			} else {
				current++
			}
		case 'P':
			if at(current+1) == 'H' {
				result.WriteByte('F')
				current += 2
			} else {
				result.WriteByte('P')
				if at(current+1) == 'P' {
					current += 2
				} else {
					current++
				}
			}
		case 'Q':
			result.WriteByte('K')
			if at(current+1) == 'Q' {
				current += 2
			} else {
				current++
			}
		case 'R':
			result.WriteByte('R')
			if at(current+1) == 'R' {
				current += 2
			} else {
				current++
			}
		case 'S':
			if stringAt(current, 2, "SH") {
				result.WriteByte('X')
				current += 2
			} else if stringAt(current, 3, "SIO", "SIA") {
				result.WriteByte('X')
				current += 3
			} else {
				result.WriteByte('S')
				if at(current+1) == 'S' {
					current += 2
				} else {
					current++
				}
			}
		case 'T':
			if stringAt(current, 2, "TH") {
				result.WriteByte('0')
				current += 2
			} else if stringAt(current, 3, "TIO", "TIA") {
				result.WriteByte('X')
				current += 3
			} else {
				result.WriteByte('T')
				if at(current+1) == 'T' {
					current += 2
				} else {
					current++
				}
			}
		case 'V':
			result.WriteByte('F')
			if at(current+1) == 'V' {
				current += 2
			} else {
				current++
			}
		case 'W':
			if isVowel(current + 1) {
				result.WriteByte('W')
			}
			current++
		case 'X':
			result.WriteString("KS")
			current++
		case 'Z':
			result.WriteByte('S')
			if at(current+1) == 'Z' {
				current += 2
			} else {
				current++
			}
		default:
			current++
		}
	}

	code := result.String()
	if len(code) > maxLen {
		code = code[:maxLen]
	}
	return code
}
