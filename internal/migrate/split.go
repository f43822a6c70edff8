package migrate

import (
	"strings"
	"unicode"
)

// Split breaks a script into individual statements on ';'.
//
// Terminators inside quoted strings, identifiers and comments are ignored,
// and so are those inside BEGIN ... END bodies of CREATE TRIGGER statements.
// Comments are dropped from the output and fragments that are empty after
// trimming are skipped.
func Split(script string) []string {
	var (
		stmts   []string
		buf     strings.Builder
		word    strings.Builder
		words   []string
		depth   int
		trigger bool
	)

	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		w := strings.ToUpper(word.String())
		word.Reset()

		if len(words) < 8 {
			words = append(words, w)
			if len(words) > 1 && words[0] == "CREATE" && w == "TRIGGER" {
				trigger = true
			}
		}
		if !trigger {
			return
		}
		switch w {
		case "BEGIN", "CASE":
			depth++
		case "END":
			if depth > 0 {
				depth--
			}
		}
	}

	flushStmt := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			stmts = append(stmts, s)
		}
		buf.Reset()
		words = words[:0]
		depth = 0
		trigger = false
	}

	rs := []rune(script)
	for i := 0; i < len(rs); i++ {
		r := rs[i]

		switch {
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			flushWord()
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
			buf.WriteRune('\n')

		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			flushWord()
			i += 2
			for i < len(rs) && !(rs[i] == '*' && i+1 < len(rs) && rs[i+1] == '/') {
				i++
			}
			i++
			buf.WriteRune(' ')

		case r == '\'' || r == '"' || r == '`':
			flushWord()
			buf.WriteRune(r)
			for i++; i < len(rs); i++ {
				buf.WriteRune(rs[i])
				if rs[i] != r {
					continue
				}
				// doubled quote is an escaped quote
				if i+1 < len(rs) && rs[i+1] == r {
					i++
					buf.WriteRune(rs[i])
					continue
				}
				break
			}

		case r == ';':
			flushWord()
			if depth > 0 {
				buf.WriteRune(r)
				continue
			}
			flushStmt()

		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			word.WriteRune(r)
			buf.WriteRune(r)

		default:
			flushWord()
			buf.WriteRune(r)
		}
	}
	flushWord()
	flushStmt()

	return stmts
}

// IsDDL reports whether stmt is structural DDL (CREATE, ALTER or DROP).
// Only such statements may be skipped as benign during re-application.
func IsDDL(stmt string) bool {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "CREATE", "ALTER", "DROP":
		return true
	}
	return false
}
