// Package numlex locates and parses numeric literals embedded in arbitrary
// text. It answers three questions for the scanner and evaluator in package
// engine: is this byte the start of a number, how long is the number that
// starts here, and what are its shape (digit count, dot/exponent offsets).
//
// Grammar accepted:
//
//	number  := sign? ( digits ('.' digits?)? | '.' digits ) exp?
//	sign    := '+' | '-'
//	digits  := [0-9]+
//	exp     := ('e'|'E'|'d'|'D') sign? digits
//
// A Fortran-style d/D exponent marker is normalized to 'e' in place.
package numlex

// Number describes the literal found by Parse.
type Number struct {
	Length int // bytes consumed, 0 if no number
	Digits int // significant digit count (leading zeros excluded)
	DotPos int // offset of '.' relative to the start of the literal, -1 if none
	ExpPos int // offset of the exponent marker, -1 if none
	IsReal bool
}

func byteAt(buf []byte, pos int) byte {
	if pos < 0 || pos >= len(buf) {
		return 0
	}
	return buf[pos]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// IsDigit reports whether c is an ASCII decimal digit.
func IsDigit(c byte) bool { return isDigit(c) }

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

// IsSeparator reports whether c ends an identifier: NUL, blank, or
// punctuation not present in keep (the user-configured identifier-char set).
func IsSeparator(c byte, keep string) bool {
	if c == 0 || isBlank(c) {
		return true
	}
	if isPunct(c) {
		for i := 0; i < len(keep); i++ {
			if keep[i] == c {
				return false
			}
		}
		return true
	}
	return false
}

// LooksLikeNumber is a cheap lookahead test (sign/blank, optional dot, then a
// digit) used by the scanner before committing to Backtrack and Parse.
func LooksLikeNumber(buf []byte, pos int) bool {
	i := pos
	c := byteAt(buf, i)
	if c == '-' || c == '+' || c == ' ' {
		i++
	}
	if byteAt(buf, i) == '.' {
		i++
	}
	return isDigit(byteAt(buf, i))
}

// Backtrack steps pos backward over a sign and/or dot that precede it, or
// forward over a single leading blank, so that pos ends up at the true start
// of the number body. buf[pos] must already satisfy LooksLikeNumber.
func Backtrack(buf []byte, pos int) int {
	c := byteAt(buf, pos)
	switch {
	case c == ' ':
		pos++
	case c == '.':
		if pos > 0 {
			p := byteAt(buf, pos-1)
			if p == '-' || p == '+' {
				pos--
			}
		}
	case isDigit(c):
		if pos > 0 && byteAt(buf, pos-1) == '.' {
			pos--
		}
		if pos > 0 {
			p := byteAt(buf, pos-1)
			if p == '-' || p == '+' {
				pos--
			}
		}
	}
	return pos
}

// IsNumberStart reports whether pos sits at the first character of a number:
// buffer start, a sign character, or immediately after a separator.
func IsNumberStart(buf []byte, pos int, keep string) bool {
	c := byteAt(buf, pos)
	if c == '-' || c == '+' {
		return true
	}
	if pos == 0 {
		return true
	}
	return IsSeparator(byteAt(buf, pos-1), keep)
}

// Parse validates and measures the numeric literal starting at pos, mutating
// buf in place to normalize a Fortran d/D exponent marker to 'e'. It returns
// the zero Number (Length 0) when no literal starts at pos.
func Parse(buf []byte, pos int) Number {
	i := 0
	n := 0
	d := 0 // 1 + offset of '.' once seen, 0 if absent
	e := 0 // 1 + offset of the exponent marker, 0 if absent

	at := func(off int) byte { return byteAt(buf, pos+off) }

	// sign
	if c := at(i); c == '-' || c == '+' {
		i++
	}

	// drop leading zeros
	for at(i) == '0' {
		i++
	}

	// integer digits
	for isDigit(at(i)) {
		n++
		i++
	}

	// dot
	if at(i) == '.' {
		i++
		d = i
	}

	if d != 0 {
		if n == 0 {
			for at(i) == '0' {
				i++
			}
		}
		for isDigit(at(i)) {
			n++
			i++
		}
	}

	// require at least one digit adjacent to the dot
	if !(i > 0 && (isDigit(at(i-1)) || (i > 1 && isDigit(at(i-2))))) {
		return Number{}
	}

	// exponent marker
	var marker byte
	if c := at(i); c == 'e' || c == 'E' || c == 'd' || c == 'D' {
		marker = c
		buf[pos+i] = 'e'
		i++
		e = i
	}

	if e != 0 {
		if c := at(i); c == '-' || c == '+' {
			i++
		}
		for isDigit(at(i)) {
			i++
		}
		if !isDigit(at(i - 1)) {
			// no digits followed the marker: roll back
			i = e - 1
			buf[pos+i] = marker
			e = 0
		}
	}

	dotPos := -1
	if d != 0 {
		dotPos = d - 1
	}
	expPos := -1
	if e != 0 {
		expPos = e - 1
	}

	return Number{
		Length: i,
		Digits: n,
		DotPos: dotPos,
		ExpPos: expPos,
		IsReal: d > 0 || e > 0,
	}
}
