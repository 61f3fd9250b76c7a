// FILE: src/internal/transport/inline.go
package transport

import (
	"regexp"
	"strings"

	"quantumlog/src/internal/core"

	"golang.org/x/net/html"
)

var inlinePattern = regexp.MustCompile(" " + regexp.QuoteMeta(core.InlineToken) + " ([^> ]+) ")

// ReadInline returns the payload of the first comment carrying the inline token
func ReadInline(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.CommentToken:
			if m := inlinePattern.FindStringSubmatch(string(z.Text())); m != nil {
				return m[1]
			}
		}
	}
}
