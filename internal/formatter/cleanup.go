package formatter

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	priceOnlyRe = regexp.MustCompile(`(?i)^\s*[-•*]?\s*(~?€\s?\d+([.,]\d{1,2})?|\d+([.,]\d{1,2})?\s?(€|euro|eur))\s*$`)
	trailerRe   = regexp.MustCompile(`(?i)(posso aiutarla|posso esserle utile|altro in cui|non esiti a chiedere|can i help|anything else|help you further|n'hésitez pas|no dude en)`)
)

// cleanup fixes glitches common in model output.
func cleanup(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var kept, trailers []string
	for _, line := range strings.Split(text, "\n") {
		if priceOnlyRe.MatchString(line) {
			continue
		}
		line = dropUnmatchedParens(line)
		line = collapseRepeats(line)

		body, trail := splitTrailers(line)
		trailers = append(trailers, trail...)
		if strings.TrimSpace(line) != "" && strings.TrimSpace(body) == "" {
			continue
		}
		kept = append(kept, body)
	}

	out := strings.TrimSpace(collapseBlankLines(kept))
	for _, t := range dedupe(trailers) {
		if out == "" {
			out = t
			continue
		}
		out += "\n\n" + t
	}
	return out
}

// dropUnmatchedParens removes "(" that are never closed on the same line.
func dropUnmatchedParens(line string) string {
	var open []int
	for i, r := range line {
		switch r {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}
	if len(open) == 0 {
		return line
	}
	b := []byte(line)
	for k := len(open) - 1; k >= 0; k-- {
		i := open[k]
		end := i + 1
		// swallow the space after the dropped parenthesis
		if end < len(b) && b[end] == ' ' && i > 0 && b[i-1] == ' ' {
			end++
		}
		b = append(b[:i], b[end:]...)
	}
	return string(b)
}

// collapseRepeats removes an immediately repeated word or phrase of up to
// three words, ignoring case and trailing punctuation: "free: free" becomes
// "free".
func collapseRepeats(line string) string {
	lead := line[:len(line)-len(strings.TrimLeftFunc(line, unicode.IsSpace))]
	words := strings.Fields(line)
	if len(words) < 2 {
		return line
	}
	changed := false
	for n := 3; n >= 1; n-- {
		for i := 0; i+2*n <= len(words); {
			if samePhrase(words[i:i+n], words[i+n:i+2*n]) {
				words = append(words[:i], words[i+n:]...)
				changed = true
				continue
			}
			i++
		}
	}
	if !changed {
		return line
	}
	return lead + strings.Join(words, " ")
}

func samePhrase(a, b []string) bool {
	for i := range a {
		x, y := normWord(a[i]), normWord(b[i])
		if x == "" || x != y {
			return false
		}
		// digits repeat legitimately, as in "2 x 2"
		if r, _ := utf8.DecodeRuneInString(x); unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func normWord(w string) string {
	return strings.ToLower(strings.TrimRightFunc(strings.TrimLeft(w, "-•*"), func(r rune) bool {
		return unicode.IsPunct(r) && r != '€'
	}))
}

// splitTrailers separates closing courtesy sentences from the rest of a line.
func splitTrailers(line string) (string, []string) {
	if !trailerRe.MatchString(line) {
		return line, nil
	}
	var body, trail []string
	for _, s := range splitSentences(line) {
		if trailerRe.MatchString(s) {
			trail = append(trail, s)
		} else {
			body = append(body, s)
		}
	}
	lead := line[:len(line)-len(strings.TrimLeft(line, " \t-•*"))]
	if len(body) == 0 {
		return "", trail
	}
	return lead + strings.Join(body, " "), trail
}

func collapseBlankLines(lines []string) string {
	var out []string
	blank := false
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, strings.TrimRight(l, " \t"))
	}
	return strings.Join(out, "\n")
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if k := strings.ToLower(it); !seen[k] {
			seen[k] = true
			out = append(out, it)
		}
	}
	return out
}

// splitSentences splits on sentence-ending punctuation followed by a space
// and on line breaks. List markers are removed.
func splitSentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
		start := 0
		runes := []rune(line)
		for i, r := range runes {
			if !strings.ContainsRune(".!?？。", r) {
				continue
			}
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
