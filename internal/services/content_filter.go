package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrContentRejected = errors.New("content rejected")

// BannedWords screen feedback comments.
var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"porn", "porno", "nude", "nudes",
}

// AbuseWords screen every text, contact messages included.
var AbuseWords = []string{
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"viagra", "casino", "crypto giveaway", "scammer", "phishing", "malware",
}

const (
	ReasonInappropriate = "inappropriate_language"
	ReasonURL           = "url_not_allowed"
	ReasonContactInfo   = "contact_info_not_allowed"
	ReasonSpam          = "spam_detected"
	ReasonCaps          = "excessive_caps"
	ReasonTooManyLinks  = "too_many_links"
)

// maxContactLinks is how many URLs a contact message may carry before it is
// treated as link spam.
const maxContactLinks = 2

// ContentFilter screens user-written text. Feedback comments go through the
// strict rule set; contact messages only through the spam rules since they
// legitimately carry links and phone numbers.
type ContentFilter struct {
	bannedWordRegexps   []*regexp.Regexp
	abuseWordRegexps    []*regexp.Regexp
	urlPattern          *regexp.Regexp
	emailPattern        *regexp.Regexp
	phonePattern        *regexp.Regexp
	repeatedCharPattern *regexp.Regexp
	allCapsPattern      *regexp.Regexp
}

func NewContentFilter() *ContentFilter {
	f := &ContentFilter{
		bannedWordRegexps: wordRegexps(BannedWords),
		abuseWordRegexps:  wordRegexps(AbuseWords),
	}

	f.urlPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`)
	f.emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	f.phonePattern = regexp.MustCompile(`\+?\d[\d\s.-]{8,}\d|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`)
	f.repeatedCharPattern = regexp.MustCompile(repeatedCharExpr())
	f.allCapsPattern = regexp.MustCompile(`\b[A-Z]{5,}\b`)
	return f
}

// CheckComment applies the strict rule set. ok is false with a reason code
// when the text must be rejected.
func (f *ContentFilter) CheckComment(text string) (ok bool, reason string) {
	if text == "" {
		return true, ""
	}
	if f.containsBannedWord(text) {
		return false, ReasonInappropriate
	}
	if f.urlPattern.MatchString(text) {
		return false, ReasonURL
	}
	if f.emailPattern.MatchString(text) || f.phonePattern.MatchString(text) {
		return false, ReasonContactInfo
	}
	if f.isRepetitive(text) {
		return false, ReasonSpam
	}
	if len(f.allCapsPattern.FindAllString(text, -1)) > 2 {
		return false, ReasonCaps
	}
	return true, ""
}

// CheckContact applies the spam rules used for public contact messages.
func (f *ContentFilter) CheckContact(text string) (ok bool, reason string) {
	if matchesAny(f.abuseWordRegexps, text) {
		return false, ReasonInappropriate
	}
	if len(f.urlPattern.FindAllString(text, -1)) > maxContactLinks {
		return false, ReasonTooManyLinks
	}
	if f.isRepetitive(text) {
		return false, ReasonSpam
	}
	return true, ""
}

func (f *ContentFilter) containsBannedWord(text string) bool {
	return matchesAny(f.bannedWordRegexps, text) || matchesAny(f.abuseWordRegexps, text)
}

func wordRegexps(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, word := range words {
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}
	return out
}

func matchesAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (f *ContentFilter) isRepetitive(text string) bool {
	return f.repeatedCharPattern.MatchString(text)
}

// repeatedCharExpr matches five identical letters or four identical
// punctuation marks in a row. RE2 has no backreferences, so every run is
// spelled out.
func repeatedCharExpr() string {
	runs := make([]string, 0, 29)
	for ch := 'a'; ch <= 'z'; ch++ {
		runs = append(runs, string(ch)+"{5,}")
	}
	runs = append(runs, `!{4,}`, `\?{4,}`, `\.{4,}`)
	return `(?i)(` + strings.Join(runs, "|") + `)`
}

func RejectionMessage(reason string) string {
	messages := map[string]string{
		ReasonInappropriate: "Your message contains inappropriate language.",
		ReasonURL:           "URLs and web links are not allowed.",
		ReasonContactInfo:   "Contact information is not allowed.",
		ReasonSpam:          "Your message appears to be spam.",
		ReasonCaps:          "Please avoid using excessive capital letters.",
		ReasonTooManyLinks:  "Your message contains too many links.",
	}
	if msg, ok := messages[reason]; ok {
		return msg
	}
	return "Your message does not meet our content guidelines."
}

func rejected(reason string) error {
	return fmt.Errorf("%w: %s", ErrContentRejected, RejectionMessage(reason))
}
