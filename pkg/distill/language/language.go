// Package language resolves the target language of a conversion job from
// directory naming conventions.
//
// The corpus layout places sources under a "raw" directory whose immediate
// child names the language ("data/raw/es/doc.pdf"), or the input path itself
// ends in a language code ("data/raw/en"). Resolution is a pure lookup over
// path segments with no global state; an explicit override always wins.
package language

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language is an ISO 639-1 code from the supported set.
type Language string

// Supported language codes.
const (
	Spanish Language = "es"
	English Language = "en"
)

// Supported lists the accepted languages in display order.
func Supported() []Language {
	return []Language{Spanish, English}
}

// IsValid reports whether l belongs to the supported set.
func (l Language) IsValid() bool {
	for _, s := range Supported() {
		if l == s {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}

// Parse validates a user-supplied language code.
func Parse(code string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	if !l.IsValid() {
		return "", fmt.Errorf("unsupported language %q (supported: %s)", code, supportedList())
	}
	return l, nil
}

func supportedList() string {
	codes := make([]string, 0, len(Supported()))
	for _, l := range Supported() {
		codes = append(codes, string(l))
	}
	return strings.Join(codes, ", ")
}

// FromPath derives the language from the path structure. A segment named
// "raw" followed by a language code takes priority; otherwise a path whose
// final segment is itself a language code matches. Returns false when no
// segment matches.
func FromPath(path string) (Language, bool) {
	segs := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for i, seg := range segs {
		if seg == "raw" && i+1 < len(segs) {
			if l := Language(segs[i+1]); l.IsValid() {
				return l, true
			}
		}
	}
	if n := len(segs); n > 0 {
		if l := Language(segs[n-1]); l.IsValid() {
			return l, true
		}
	}
	return "", false
}

// Resolve applies override precedence: a non-empty override wins, otherwise
// the path convention is consulted.
func Resolve(override Language, path string) (Language, bool) {
	if override != "" {
		return override, override.IsValid()
	}
	return FromPath(path)
}
