// README: Prompt-injection detection with decode-then-match normalization.
package security

import (
	"encoding/base64"
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Pattern ids produced by the scan heuristics in addition to the catalog.
const (
	PatternExcessiveSpecials = "excessive_special_characters"
	PatternExcessiveKeywords = "excessive_suspicious_keywords"
)

type signature struct {
	id string
	re *regexp.Regexp
}

// catalog holds the injection signatures. Matching is case-insensitive and
// runs against every decoded variant of the input (see variantsOf), so
// HTML-entity or percent-encoded payloads are caught after decoding rather
// than by blindly flagging the encodings themselves.
var catalog = []signature{
	// direct instruction override
	{"instruction_override", regexp.MustCompile(`(?i)\b(ignore|forget|disregard)\s+(?:(?:previous|above|all|these|your)\s+){1,2}(instructions?|prompts?|rules?)\b`)},
	{"instruction_override_loose", regexp.MustCompile(`(?i)\bignore\b.*\binstructions?\b`)},
	{"role_coercion", regexp.MustCompile(`(?i)\b(act|behave|pretend|roleplay)\s+as\s+(a|an)?\s*\w+`)},
	{"identity_rewrite", regexp.MustCompile(`(?i)\b(you\s+are\s+now|now\s+you\s+are)\s+(a|an)?\s*\w+`)},
	{"response_coercion", regexp.MustCompile(`(?i)\bnow\s+(respond|answer|say|tell|write|generate)\b`)},

	// system-prompt extraction and role markers
	{"system_prompt_probe", regexp.MustCompile(`(?i)\b(reveal|show|print|repeat|leak)\b.*\b(system\s+prompt|initial\s+instructions?|hidden\s+instructions?)\b`)},
	{"system_role_marker", regexp.MustCompile(`(?i)\bsystem\s*:`)},
	{"assistant_role_marker", regexp.MustCompile(`(?i)\b(assistant|chatbot|gpt|claude)\s*:`)},
	{"role_tag", regexp.MustCompile(`(?i)<\s*/?\s*(system|assistant|user)\s*>`)},

	// jailbreak vocabulary and framing
	{"jailbreak_vocab", regexp.MustCompile(`(?i)\b(jailbreak|bypass|override|hack|exploit)\b`)},
	{"educational_pretext", regexp.MustCompile(`(?i)\bfor\s+educational\s+purposes?\b`)},
	{"hypothetical_framing", regexp.MustCompile(`(?i)\bhypothetically\b`)},
	{"imagine_framing", regexp.MustCompile(`(?i)\bimagine\s+if\b`)},
	{"lets_say_framing", regexp.MustCompile(`(?i)\blet'?s\s+say\b`)},

	// embedded code
	{"code_fence", regexp.MustCompile("(?i)```\\s*(python|javascript|bash|sh|cmd|powershell|sql)")},
	{"eval_call", regexp.MustCompile(`(?i)\beval\s*\(`)},
	{"exec_call", regexp.MustCompile(`(?i)\bexec\s*\(`)},
	{"dunder_import", regexp.MustCompile(`(?i)\b__import__\s*\(`)},
	{"os_shell_call", regexp.MustCompile(`(?i)\bos\.(system|popen|exec)`)},

	// prompt continuation tricks
	{"continuation_trick", regexp.MustCompile(`(?i)\b(continued?|part\s+\d+|step\s+\d+)\s*:`)},

	// social engineering
	{"social_engineering", regexp.MustCompile(`(?i)\b(emergency|urgent|critical|important|please|help)\b.*\b(override|ignore|bypass)\b`)},
	{"authority_claim", regexp.MustCompile(`(?i)\bi\s+am\s+(your\s+)?(creator|developer|admin|owner)\b`)},
	{"sympathy_ploy", regexp.MustCompile(`(?i)\bmy\s+(grandmother|dying)\b`)},

	// raw obfuscation indicator: literal \uXXXX escapes in plain text
	{"unicode_escape", regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)},
}

// homoglyphs maps common Unicode confusables onto their ASCII look-alikes.
// Conservative on purpose: only characters with an unambiguous Latin twin.
var homoglyphs = map[rune]rune{
	// Cyrillic
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'х': 'x',
	'і': 'i', 'ѕ': 's', 'у': 'y', 'ј': 'j', 'ԁ': 'd', 'ɡ': 'g',
	'А': 'A', 'В': 'B', 'Е': 'E', 'К': 'K', 'М': 'M', 'Н': 'H',
	'О': 'O', 'Р': 'P', 'С': 'C', 'Т': 'T', 'Х': 'X',
	// Greek
	'ο': 'o', 'ν': 'v', 'α': 'a', 'ι': 'i', 'τ': 't', 'υ': 'u',
}

var suspiciousKeywords = []string{
	"system", "ignore", "override", "jailbreak", "bypass", "hack", "prompt", "instruction",
}

var base64Runs = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)

// Scan reports the ids of every injection signature the text matches.
// Normalization order before matching: homoglyph fold, HTML-entity decode,
// percent decode, with signatures applied to every intermediate variant so a
// payload hidden behind any single encoding layer is still caught. Benign
// text yields an empty result. The caller is responsible for logging
// non-empty results as security events.
func Scan(text string) []string {
	variants := variantsOf(text)

	var matched []string
	for _, sig := range catalog {
		for _, v := range variants {
			if sig.re.MatchString(v) {
				matched = append(matched, sig.id)
				break
			}
		}
	}

	// Heuristics run on the fully decoded variant so sanitizer escaping does
	// not skew the ratio.
	decoded := variants[len(variants)-1]
	if specialCharRatio(decoded) > 0.3 {
		matched = append(matched, PatternExcessiveSpecials)
	}
	if keywordCount(decoded) > 3 {
		matched = append(matched, PatternExcessiveKeywords)
	}
	return matched
}

// StripMatches removes matching spans from text and returns the remainder
// together with the ids that fired. If matches were only reachable through a
// decoded variant, span removal on the raw text is not well defined, so the
// whole field is dropped instead of risking a partially obfuscated payload.
func StripMatches(text string) (string, []string) {
	matched := Scan(text)
	if len(matched) == 0 {
		return text, nil
	}
	out := text
	for _, sig := range catalog {
		out = sig.re.ReplaceAllString(out, " ")
	}
	out = strings.TrimSpace(whitespaceRuns.ReplaceAllString(out, " "))
	for _, id := range Scan(out) {
		if id != PatternExcessiveSpecials && id != PatternExcessiveKeywords {
			return "", matched
		}
	}
	return out, matched
}

// ScanEncoded reports whether the text carries a base64-wrapped payload whose
// decoded form matches the catalog. Covers one nesting level.
func ScanEncoded(text string) bool {
	for _, run := range base64Runs.FindAllString(text, -1) {
		decoded, err := base64.StdEncoding.DecodeString(pad64(run))
		if err != nil {
			continue
		}
		if !utf8.Valid(decoded) {
			continue
		}
		if len(Scan(string(decoded))) > 0 {
			return true
		}
	}
	return false
}

func variantsOf(text string) []string {
	vs := []string{text}
	folded := foldHomoglyphs(text)
	if folded != text {
		vs = append(vs, folded)
	}
	unescaped := html.UnescapeString(folded)
	if unescaped != folded {
		vs = append(vs, unescaped)
	}
	if dec, err := url.QueryUnescape(unescaped); err == nil && dec != unescaped {
		vs = append(vs, dec)
	}
	return vs
}

func foldHomoglyphs(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		// zero-width characters hide keyword boundaries; drop them
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}
		if mapped, ok := homoglyphs[r]; ok {
			return mapped
		}
		// fullwidth ASCII block
		if r >= 0xFF01 && r <= 0xFF5E {
			return r - 0xFEE0
		}
		return r
	}, text)
}

func specialCharRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	special := 0
	for _, r := range runes {
		if !isWordOrSpace(r) {
			special++
		}
	}
	return float64(special) / float64(len(runes))
}

func isWordOrSpace(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == ' ', r == '\t', r == '\n', r == '\r':
		return true
	case r > 127: // non-ASCII letters count as word characters, not specials
		return true
	}
	return false
}

func keywordCount(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range suspiciousKeywords {
		n += strings.Count(lower, kw)
	}
	return n
}

func pad64(s string) string {
	if m := len(s) % 4; m != 0 {
		return s + strings.Repeat("=", 4-m)
	}
	return s
}
