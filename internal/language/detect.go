// Package language guesses the language of a guest message from its script,
// keywords and diacritics.
package language

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Default is returned when nothing points elsewhere.
var Default = language.Italian

const (
	// cyrillicRatio forces Russian once this share of non-space runes is Cyrillic.
	cyrillicRatio = 0.08
	// shortText is the rune length below which keyword lists replace scoring.
	shortText = 20

	baseline       = 5
	keywordWeight  = 2
	scriptBonus    = 50
	diacriticBonus = 15
)

type candidate struct {
	tag        language.Tag
	script     []*unicode.RangeTable
	keywords   map[string]bool
	greetings  []string
	diacritics string
}

func words(s ...string) map[string]bool {
	m := make(map[string]bool, len(s))
	for _, w := range s {
		m[w] = true
	}
	return m
}

// candidates are listed in tie-break order: earlier wins on equal score.
var candidates = []candidate{
	{
		tag: language.Italian,
		keywords: words("il", "lo", "la", "gli", "di", "che", "e", "per", "sono", "vorrei", "ristorante",
			"grazie", "buongiorno", "buonasera", "ciao", "quali", "quale", "orari", "come", "della", "del",
			"una", "prenotare", "camera", "cosa", "posso", "avete", "anche"),
		greetings:  []string{"ciao", "buongiorno", "buonasera", "salve", "grazie", "arrivederci"},
		diacritics: "àèìòù",
	},
	{
		tag: language.English,
		keywords: words("the", "is", "are", "what", "how", "i", "would", "like", "you", "please", "restaurant",
			"hello", "hi", "thanks", "book", "room", "and", "of", "to", "can", "do", "have", "your", "which"),
		greetings: []string{"hello", "hi", "hey", "thanks", "thank", "good morning", "good evening"},
	},
	{
		tag: language.French,
		keywords: words("le", "les", "des", "est", "je", "vous", "bonjour", "merci", "quels", "quelles", "une",
			"pour", "avec", "sont", "horaires", "du", "au", "nous", "voudrais", "chambre"),
		greetings:  []string{"bonjour", "bonsoir", "salut", "merci"},
		diacritics: "çâêîôûëïœ",
	},
	{
		tag: language.German,
		keywords: words("der", "die", "das", "und", "ist", "ich", "sie", "guten", "tag", "danke", "hallo", "wie",
			"was", "zimmer", "bitte", "möchte", "haben", "ein", "eine", "wann"),
		greetings:  []string{"hallo", "guten tag", "guten morgen", "guten abend", "danke"},
		diacritics: "äöüß",
	},
	{
		tag: language.Spanish,
		keywords: words("el", "los", "las", "es", "que", "hola", "gracias", "quiero", "habitación", "cuáles",
			"por", "para", "una", "con", "buenos", "días", "restaurante", "cuál", "tienen", "reservar"),
		greetings:  []string{"hola", "buenos días", "buenas tardes", "gracias"},
		diacritics: "ñ¿¡áíóú",
	},
	{
		tag: language.Portuguese,
		keywords: words("o", "os", "as", "não", "olá", "obrigado", "obrigada", "quero", "quarto", "para", "uma",
			"com", "bom", "dia", "você", "restaurante", "vocês", "quais"),
		greetings:  []string{"olá", "oi", "bom dia", "boa tarde", "obrigado", "obrigada"},
		diacritics: "ãõç",
	},
	{tag: language.Russian, script: cyrillic},
	{tag: language.Japanese, script: kana},
	{tag: language.Korean, script: hangul},
	{tag: language.Chinese, script: han},
	{tag: language.Arabic, script: arabic},
	{tag: language.Hindi, script: devanagari},
	{tag: language.Thai, script: thai},
}

var (
	kana       = []*unicode.RangeTable{unicode.Hiragana, unicode.Katakana}
	hangul     = []*unicode.RangeTable{unicode.Hangul}
	han        = []*unicode.RangeTable{unicode.Han}
	arabic     = []*unicode.RangeTable{unicode.Arabic}
	devanagari = []*unicode.RangeTable{unicode.Devanagari}
	thai       = []*unicode.RangeTable{unicode.Thai}
	cyrillic   = []*unicode.RangeTable{unicode.Cyrillic}
)

// scriptOrder decides mixed-script input. Kana is checked before Han because
// Japanese text is mostly kanji.
var scriptOrder = []struct {
	tag    language.Tag
	tables []*unicode.RangeTable
}{
	{language.Japanese, kana},
	{language.Korean, hangul},
	{language.Chinese, han},
	{language.Arabic, arabic},
	{language.Hindi, devanagari},
	{language.Thai, thai},
	{language.Russian, cyrillic},
}

// shortAccents is checked in order for short inputs without a known greeting.
var shortAccents = []struct {
	tag   language.Tag
	chars string
}{
	{language.German, "äöüß"},
	{language.Spanish, "ñ¿¡"},
	{language.Portuguese, "ãõ"},
	{language.French, "çœâêîôûëï"},
	{language.Italian, "àèìòù"},
}

// Detect returns the most likely language of text.
func Detect(text string) language.Tag {
	text = strings.TrimSpace(text)
	if text == "" {
		return Default
	}

	if cyrillicShare(text) >= cyrillicRatio {
		return language.Russian
	}

	for _, s := range scriptOrder {
		if containsScript(text, s.tables) {
			return s.tag
		}
	}

	lower := strings.ToLower(text)
	if utf8.RuneCountInString(text) < shortText {
		return detectShort(lower)
	}
	return detectScored(lower)
}

// Code is the two-letter code of the detected language.
func Code(text string) string {
	base, _ := Detect(text).Base()
	return base.String()
}

// Name is the Italian display name of a language code, e.g. "inglese" for
// "en". Unknown codes return the code itself.
func Name(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Languages(language.Italian).Name(tag); name != "" {
		return name
	}
	return code
}

func detectShort(lower string) language.Tag {
	tokens := tokenize(lower)
	joined := " " + strings.Join(tokens, " ") + " "
	for _, c := range candidates {
		for _, g := range c.greetings {
			if strings.Contains(joined, " "+g+" ") {
				return c.tag
			}
		}
	}
	for _, a := range shortAccents {
		if strings.ContainsAny(lower, a.chars) {
			return a.tag
		}
	}
	return Default
}

func detectScored(lower string) language.Tag {
	tokens := tokenize(lower)
	best, bestScore := Default, -1
	for _, c := range candidates {
		score := 0
		if c.tag == Default {
			score = baseline
		}
		for _, tok := range tokens {
			if c.keywords[tok] {
				score += keywordWeight
			}
		}
		if c.script != nil && containsScript(lower, c.script) {
			score += scriptBonus
		}
		if c.diacritics != "" && strings.ContainsAny(lower, c.diacritics) {
			score += diacriticBonus
		}
		if score > bestScore {
			best, bestScore = c.tag, score
		}
	}
	return best
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func containsScript(s string, tables []*unicode.RangeTable) bool {
	for _, r := range s {
		if unicode.In(r, tables...) {
			return true
		}
	}
	return false
}

func cyrillicShare(s string) float64 {
	var total, cyr int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.Is(unicode.Cyrillic, r) {
			cyr++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(cyr) / float64(total)
}
