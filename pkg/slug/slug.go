// Package slug builds URL-safe identifiers for players and games.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

const maxLength = 60

// Make lowercases s, strips accents and collapses everything else into single dashes.
func Make(s string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	out := strings.Trim(nonAlnum.ReplaceAllString(b.String(), "-"), "-")
	if len(out) > maxLength {
		out = strings.TrimRight(out[:maxLength], "-")
	}
	if out == "" {
		out = "x"
	}
	return out
}

// Unique returns Make(s), suffixed with -2, -3, ... until exists reports false.
func Unique(ctx context.Context, s string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := Make(s)
	candidate := base
	for i := 2; ; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
