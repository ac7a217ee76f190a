package uiutil

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const FriendlyDateTimeLayout = "02.01.2006 15:04"

// FriendlyRelativeTime returns a human-friendly Turkish description of how long ago t occurred,
// measured from now. Times in the future are treated as "az önce".
func FriendlyRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		return "az önce"
	}

	switch {
	case diff < time.Minute:
		return "az önce"
	case diff < time.Hour:
		return strconv.Itoa(int(diff.Minutes())) + " dakika önce"
	case diff < 24*time.Hour:
		return strconv.Itoa(int(diff.Hours())) + " saat önce"
	case diff < 7*24*time.Hour:
		return strconv.Itoa(int(diff.Hours()/24)) + " gün önce"
	default:
		return FormatFriendlyDateTime(t)
	}
}

// FormatFriendlyDateTime returns a consistent, user-friendly local timestamp representation.
func FormatFriendlyDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(FriendlyDateTimeLayout)
}

// TruncateWithEllipsis shortens text to the provided rune limit and appends an ellipsis when truncated.
func TruncateWithEllipsis(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	if limit <= 1 {
		return "…"
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}

// Initials builds up to two upper-case initials from a display name or email.
func Initials(name string) string {
	name = strings.TrimSpace(name)
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '.' || r == '_' || r == '-'
	})

	var b strings.Builder
	for _, f := range fields {
		r, _ := utf8.DecodeRuneInString(f)
		if r == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}
