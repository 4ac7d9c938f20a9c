package validate

import (
	"strings"

	"github.com/mcp-forge/forge-backend/internal/generator/domain"
)

// pythonScan walks Python source character by character, tracking string and
// comment state so bracket counting and pattern checks only see real code.
type pythonScan struct {
	path     string
	line     int
	findings []domain.Finding
}

func scanPython(path string, src []byte) []domain.Finding {
	s := &pythonScan{path: path, line: 1}

	var (
		stack      []byte // open bracket stack
		inString   bool
		strQuote   byte
		strTriple  bool
		codeLines  []codeLine
		lineBuf    strings.Builder
		lineHadCol bool
	)

	text := string(src)
	flushLine := func() {
		codeLines = append(codeLines, codeLine{
			number:     s.line,
			text:       lineBuf.String(),
			endsColon:  lineHadCol,
			openDepth:  len(stack),
			continued:  inString && strTriple,
		})
		lineBuf.Reset()
		lineHadCol = false
		s.line++
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case c == '\\' && !strTriple:
				i++ // skip escaped char
			case c == '\n':
				if !strTriple {
					// Tolerated: f-string edge cases make single-line
					// termination too noisy to enforce here.
					inString = false
				}
				flushLine()
			case c == strQuote:
				if strTriple {
					if i+2 < len(text) && text[i+1] == strQuote && text[i+2] == strQuote {
						inString = false
						i += 2
					}
				} else {
					inString = false
				}
			}
			continue
		}

		switch c {
		case '#':
			// Drop the rest of the line.
			for i < len(text) && text[i] != '\n' {
				i++
			}
			flushLine()
		case '\'', '"':
			inString = true
			strQuote = c
			strTriple = false
			lineHadCol = false
			if i+2 < len(text) && text[i+1] == c && text[i+2] == c {
				strTriple = true
				i += 2
			}
		case '(', '[', '{':
			stack = append(stack, c)
			lineHadCol = false
			lineBuf.WriteByte(c)
		case ')', ']', '}':
			if len(stack) == 0 || !bracketMatch(stack[len(stack)-1], c) {
				s.add("syntax", domain.SeverityFatal, s.line, "unbalanced brackets")
				return s.findings
			}
			stack = stack[:len(stack)-1]
			lineHadCol = false
			lineBuf.WriteByte(c)
		case '\n':
			flushLine()
		case ':':
			lineHadCol = true
			lineBuf.WriteByte(c)
		default:
			if c != ' ' && c != '\t' && c != '\r' {
				lineHadCol = false
			}
			lineBuf.WriteByte(c)
		}
	}
	flushLine()

	if len(stack) > 0 {
		s.add("syntax", domain.SeverityFatal, s.line, "unclosed bracket at end of file")
	}
	if inString && strTriple {
		s.add("syntax", domain.SeverityFatal, s.line, "unterminated triple-quoted string")
	}

	s.checkIndentation(codeLines)
	return s.findings
}

type codeLine struct {
	number    int
	text      string
	endsColon bool
	openDepth int // bracket depth at end of line
	continued bool
}

// checkIndentation requires the line after a block opener (a line ending in
// ':' at bracket depth zero) to be indented deeper than the opener.
func (s *pythonScan) checkIndentation(lines []codeLine) {
	for i, ln := range lines {
		if !ln.endsColon || ln.openDepth > 0 || ln.continued {
			continue
		}
		next, ok := nextCodeLine(lines, i+1)
		if !ok {
			s.add("indentation", domain.SeverityFatal, ln.number, "block opener at end of file")
			continue
		}
		if indentOf(next.text) <= indentOf(ln.text) {
			s.add("indentation", domain.SeverityFatal, next.number, "expected an indented block")
		}
	}
}

func nextCodeLine(lines []codeLine, from int) (codeLine, bool) {
	for _, ln := range lines[from:] {
		if strings.TrimSpace(ln.text) != "" {
			return ln, true
		}
	}
	return codeLine{}, false
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

func bracketMatch(open, close byte) bool {
	switch open {
	case '(':
		return close == ')'
	case '[':
		return close == ']'
	case '{':
		return close == '}'
	}
	return false
}

func (s *pythonScan) add(kind string, sev domain.Severity, line int, msg string) {
	s.findings = append(s.findings, domain.Finding{
		Path:     s.path,
		Kind:     kind,
		Severity: sev,
		Line:     line,
		Message:  msg,
	})
}
