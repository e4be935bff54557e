package item

import (
	"fmt"
	"strings"

	"github.com/mylost-cloud/mylost/internal/domain/query"
)

// compileFilter translates a normalized list filter into one FT.SEARCH query
// string. Dimensions combine with AND; a filter with no dimensions matches
// everything ("*").
func compileFilter(f query.Filter) string {
	var parts []string

	if f.Category != "" {
		// TAG fields match case-insensitively unless created CASESENSITIVE,
		// which gives the category dimension its exact, case-insensitive
		// semantics.
		parts = append(parts, fmt.Sprintf("@%s:{%s}", fieldCategory, tagEscaper.Replace(f.Category)))
	}

	if f.Region != nil {
		parts = append(parts,
			fmt.Sprintf("@%s:[%g %g]", fieldLatitude, f.Region.MinLat, f.Region.MaxLat),
			fmt.Sprintf("@%s:[%g %g]", fieldLongitude, f.Region.MinLng, f.Region.MaxLng),
		)
	}

	if f.Text != "" {
		if escaped := escapeText(f.Text); escaped != "" {
			// Field group: every token must match, in any of the three
			// text fields (OR across fields, token match within).
			parts = append(parts, fmt.Sprintf("@%s|%s|%s:(%s)",
				fieldDescription, fieldNotes, fieldFoundAtAddress, escaped))
		}
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// compileNearby translates a nearby query into a GEO radius predicate.
func compileNearby(n query.Nearby) string {
	return fmt.Sprintf("@%s:[%g %g %g km]", fieldLocation, n.Longitude, n.Latitude, n.RadiusKm)
}

// escapeText escapes each whitespace-separated token of the free-text term
// for the FT query syntax and rejoins them.
func escapeText(text string) string {
	tokens := strings.Fields(text)
	escaped := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if e := queryEscaper.Replace(tok); e != "" {
			escaped = append(escaped, e)
		}
	}
	return strings.Join(escaped, " ")
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
	`,`, `\,`,
)
