// Package formatter tidies completion model output before it reaches guests:
// it removes common glitches, keeps greetings short, groups list-like answers
// under section headers and makes sure menu lines carry a price.
package formatter

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/villa-concierge/concierge-platform/internal/intent"
)

const (
	greetingMax = 150
	truncateAt  = 100
	ellipsis    = "..."
)

var (
	priceRe  = regexp.MustCompile(`(?i)(€\s?\d|\d\s?€|\d\s?(euro|eur)\b)`)
	headerRe = regexp.MustCompile(`^[\p{Lu}][\p{Lu}\s']{2,}:$`)

	menuTopic       = intent.MatchAny(`men[uù]`, `\bpiatt\w*`, `mangiare`, `\bcena\b`, `\bpranzo\b`, `antipast\w*`, `\bprimi\b`, `\bsecondi\b`, `\bdolci\b`, `\bdessert`, `\bfood\b`, `\bdish`)
	activitiesTopic = intent.MatchAny(`attivit`, `escursion\w*`, `esperienz\w*`, `\btour\b`, `\bactivit`)
	eventsTopic     = intent.MatchAny(`\bevent`, `concert\w*`, `\bfesta\b`, `\bserat[ae]\b`)
)

// Formatter applies Enhance. The random source only drives synthesized prices.
type Formatter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a formatter. A nil rng is seeded from the clock.
func New(rng *rand.Rand) *Formatter {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Formatter{rng: rng}
}

var std = New(nil)

// Enhance formats raw with the package formatter.
func Enhance(raw, userMessage string) string {
	return std.Enhance(raw, userMessage)
}

// Enhance cleans raw model output for the message that triggered it. It
// never panics; on an internal failure the raw text is returned.
func (f *Formatter) Enhance(raw, userMessage string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = raw
		}
	}()

	text := cleanup(raw)

	if intent.IsGreeting(userMessage) {
		return shortenGreeting(text)
	}

	t := topicOf(userMessage)
	if t == nil {
		return text
	}
	text = normalizeHeaders(text)
	if !hasHeaders(text) {
		text = sectionize(text, t.sections)
	}
	if t.priced {
		text = f.ensurePrices(text)
	}
	return text
}

type section struct {
	header   string
	keywords func(string) bool
	// price range for synthesized menu prices
	lo, hi int
}

type topic struct {
	sections []section
	priced   bool
}

var (
	menuSections = []section{
		{"ANTIPASTI:", intent.MatchAny(`antipast\w*`, `bruschett\w*`, `tagliere`, `salumi`, `carpaccio`, `crostin\w*`, `panzanella`, `starter`), 12, 18},
		{"PRIMI:", intent.MatchAny(`\bpasta\b`, `risott\w*`, `\bpici\b`, `pappardell\w*`, `tagliatell\w*`, `raviol\w*`, `zupp\w*`, `ribollita`, `\bprim[oi]\b`), 16, 24},
		{"SECONDI:", intent.MatchAny(`bistecca`, `\bcarne\b`, `\bpesce\b`, `filett\w*`, `branzino`, `peposo`, `pollo`, `arrosto`, `\bsecond[oi]\b`, `tagliata`), 24, 36},
		{"DOLCI:", intent.MatchAny(`\bdolc[ei]\b`, `tiramis`, `\btorta\b`, `gelato`, `cantucci`, `panna cotta`, `dessert`, `sorbetto`), 8, 12},
	}
	activitySections = []section{
		{header: "ESPERIENZE:", keywords: intent.MatchAny(`degustazion\w*`, `\bcorso\b`, `cucina`, `\byoga\b`, `\bvin[io]\b`, `cantina`, `tasting`, `cooking`)},
		{header: "ESCURSIONI:", keywords: intent.MatchAny(`\btour\b`, `escursion\w*`, `passeggiat\w*`, `\bbici`, `e-?bike`, `cavallo`, `trekking`, `hiking`)},
	}
	eventSections = []section{
		{header: "EVENTI:", keywords: intent.MatchAny(`\bevent\w*`, `concert\w*`, `\bfesta\b`, `\bserat[ae]\b`, `musica`, `\bcena\b`, `spettacol\w*`, `vendemmia`)},
	}
)

func topicOf(msg string) *topic {
	switch {
	case menuTopic(msg):
		return &topic{sections: menuSections, priced: true}
	case activitiesTopic(msg):
		return &topic{sections: activitySections}
	case eventsTopic(msg):
		return &topic{sections: eventSections}
	}
	return nil
}

func hasHeaders(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if isHeader(line) {
			return true
		}
	}
	return false
}

func isHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	if _, ok := knownHeader(trimmed); ok {
		return true
	}
	return headerRe.MatchString(trimmed)
}

// knownHeader matches a section header in any letter case, e.g. "Primi:".
func knownHeader(line string) (string, bool) {
	upper := strings.ToUpper(strings.Join(strings.Fields(line), " "))
	for _, group := range [][]section{menuSections, activitySections, eventSections} {
		for _, sec := range group {
			if upper == sec.header {
				return sec.header, true
			}
		}
	}
	return "", false
}

// normalizeHeaders rewrites known headers in upper case so later steps see
// "Antipasti:" and "ANTIPASTI:" alike.
func normalizeHeaders(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if h, ok := knownHeader(strings.TrimSpace(line)); ok {
			lines[i] = h
		}
	}
	return strings.Join(lines, "\n")
}

// shortenGreeting keeps the first sentence when it fits, otherwise cuts it
// at a word boundary.
func shortenGreeting(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return text
	}
	first := sentences[0]
	if runeLen(first) <= greetingMax {
		return first
	}
	return truncateWords(first, truncateAt) + ellipsis
}

func truncateWords(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := string(r[:limit])
	if i := strings.LastIndexAny(cut, " \t\n"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:")
}

// sectionize buckets sentences under the topic headers. Sections that end up
// empty take the first two sentences nobody claimed; what remains is appended
// as free text.
func sectionize(text string, sections []section) string {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return text
	}

	buckets := make([][]string, len(sections))
	claimed := make([]bool, len(sentences))
	for i, s := range sentences {
		for j, sec := range sections {
			if sec.keywords(s) {
				buckets[j] = append(buckets[j], s)
				claimed[i] = true
				break
			}
		}
	}
	for j := range sections {
		if len(buckets[j]) > 0 {
			continue
		}
		for i := range sentences {
			if len(buckets[j]) == 2 {
				break
			}
			if !claimed[i] {
				buckets[j] = append(buckets[j], sentences[i])
				claimed[i] = true
			}
		}
	}

	var blocks []string
	for j, sec := range sections {
		if len(buckets[j]) == 0 {
			continue
		}
		lines := []string{sec.header}
		for _, s := range buckets[j] {
			lines = append(lines, "- "+s)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	var rest []string
	for i, s := range sentences {
		if !claimed[i] {
			rest = append(rest, s)
		}
	}
	if len(rest) > 0 {
		blocks = append(blocks, strings.Join(rest, " "))
	}
	return strings.Join(blocks, "\n\n")
}

// ensurePrices appends an approximate price to every line of a menu section
// that has none. Synthesized prices are marked with "~". A section runs from
// its header to the next blank line; prose outside sections is not a dish and
// stays unpriced.
func (f *Formatter) ensurePrices(text string) string {
	lines := strings.Split(text, "\n")
	var current *section
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			current = nil
		case isHeader(trimmed):
			current = sectionFor(trimmed)
		case current != nil && !priceRe.MatchString(trimmed):
			lines[i] = strings.TrimRight(line, " .") + " - ~€" + itoa(f.between(current.lo, current.hi))
		}
	}
	return strings.Join(lines, "\n")
}

func sectionFor(header string) *section {
	for i := range menuSections {
		if strings.EqualFold(menuSections[i].header, header) {
			return &menuSections[i]
		}
	}
	// unknown headers use the primi range
	return &menuSections[1]
}

func (f *Formatter) between(lo, hi int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lo + f.rng.IntN(hi-lo+1)
}
