package database

// parameterNames returns the distinct $Name parameters of query in order of
// first appearance. Quoted strings, quoted identifiers and comments are
// skipped.
func parameterNames(query string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(query, i, c)
		case c == '[':
			for i < len(query) && query[i] != ']' {
				i++
			}
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			for i < len(query) && query[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			i += 2
			for i+1 < len(query) && !(query[i] == '*' && query[i+1] == '/') {
				i++
			}
			i++
		case c == '$':
			j := i + 1
			for j < len(query) && isIdentByte(query[j], j == i+1) {
				j++
			}
			if j > i+1 {
				name := query[i+1 : j]
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
			i = j - 1
		}
	}
	return names
}

// skipQuoted returns the index of the quote closing the literal opened at i.
// A doubled quote inside the literal is an escaped quote.
func skipQuoted(query string, i int, quote byte) int {
	for i++; i < len(query); i++ {
		if query[i] != quote {
			continue
		}
		if i+1 < len(query) && query[i+1] == quote {
			i++
			continue
		}
		return i
	}
	return i
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
