package search

import (
	"bufio"
	"regexp"
	"strings"
)

var (
	linkRE       = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	inlineCodeRE = regexp.MustCompile("`([^`]*)`")
	emphasisRE   = regexp.MustCompile(`(\*\*|__|\*|_|~~)([^*_~]+)(\*\*|__|\*|_|~~)`)
	headingRE    = regexp.MustCompile(`^#{1,6}\s+`)
	listRE       = regexp.MustCompile(`^([-*+]|\d+\.)\s+`)
)

// PlainText flattens markdown into indexable text: fenced code is kept as
// plain lines, table rows become space-separated cells, separator rows and
// markup are dropped. Paragraphs are separated by one blank line.
func PlainText(md string) string {
	var b strings.Builder
	sc := bufio.NewScanner(strings.NewReader(md))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	wroteBlank := true // avoid a leading blank
	emit := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		b.WriteString(s)
		b.WriteByte('\n')
		wroteBlank = false
	}
	blank := func() {
		if !wroteBlank {
			b.WriteByte('\n')
			wroteBlank = true
		}
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			blank()
		case strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~"):
			// fence markers carry at most a language name
			continue
		case strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|"):
			emit(tableRow(line))
		case strings.HasPrefix(line, ">"):
			emit(inline(strings.TrimLeft(line, "> ")))
		default:
			line = headingRE.ReplaceAllString(line, "")
			line = listRE.ReplaceAllString(line, "")
			emit(inline(line))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func inline(s string) string {
	s = linkRE.ReplaceAllString(s, "$1")
	s = inlineCodeRE.ReplaceAllString(s, "$1")
	s = emphasisRE.ReplaceAllString(s, "$2")
	return s
}

// tableRow returns the non-empty cells of a row, or "" for separator rows.
func tableRow(line string) string {
	cols := strings.Split(strings.Trim(line, "|"), "|")
	cells := make([]string, 0, len(cols))
	allSep := true
	for _, c := range cols {
		cell := strings.TrimSpace(c)
		if strings.Trim(cell, ":- ") != "" {
			allSep = false
		}
		if cell != "" {
			cells = append(cells, inline(cell))
		}
	}
	if allSep {
		return ""
	}
	return strings.Join(cells, " ")
}
