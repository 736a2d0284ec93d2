// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Style identifies a supported citation style.
type Style string

const (
	StyleAPA     Style = "APA"
	StyleMLA     Style = "MLA"
	StyleChicago Style = "Chicago"
)

// ParseStyle normalizes a style name, case-insensitively. Unsupported
// styles return ErrUnknownStyle.
func ParseStyle(s string) (Style, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "APA":
		return StyleAPA, nil
	case "MLA":
		return StyleMLA, nil
	case "CHICAGO":
		return StyleChicago, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: APA, MLA, Chicago)", ErrUnknownStyle, s)
	}
}

// format renders one citation in the given style. Pure: depends only on
// the record's fields and the style.
func format(st Style, c types.Citation) string {
	switch st {
	case StyleMLA:
		return formatMLA(c)
	case StyleChicago:
		return formatChicago(c)
	default:
		return formatAPA(c)
	}
}

// formatAPA renders: Authors. (Year). Title. Publisher. Retrieved from URL
func formatAPA(c types.Citation) string {
	var b strings.Builder
	b.WriteString(ensurePeriod(apaAuthors(c.Authors)))
	b.WriteString(fmt.Sprintf(" (%s). %s.", apaDate(c), c.Title))
	if c.Publisher != "" {
		b.WriteString(" " + ensurePeriod(c.Publisher))
	}
	if c.URL != "" {
		b.WriteString(" Retrieved from " + c.URL)
	}
	return b.String()
}

// formatMLA renders: Author. "Title." Web. Accessed. <URL>.
func formatMLA(c types.Citation) string {
	var b strings.Builder
	b.WriteString(ensurePeriod(mlaAuthors(c.Authors)))
	b.WriteString(` "` + c.Title + `." Web.`)
	if c.Accessed != "" {
		b.WriteString(" " + c.Accessed + ".")
	}
	if c.URL != "" {
		b.WriteString(" <" + c.URL + ">.")
	}
	return b.String()
}

// formatChicago renders: Author. "Title." Accessed date. URL.
func formatChicago(c types.Citation) string {
	var b strings.Builder
	b.WriteString(ensurePeriod(firstOrUnknown(c.Authors)))
	b.WriteString(` "` + c.Title + `."`)
	if c.Accessed != "" {
		b.WriteString(" Accessed " + c.Accessed + ".")
	}
	if c.URL != "" {
		b.WriteString(" " + c.URL + ".")
	}
	return b.String()
}

// apaAuthors joins authors APA style: one name as-is, two joined with "&",
// three or more comma-separated with ", & " before the last.
func apaAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return "Unknown Author"
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " & " + authors[1]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + ", & " + authors[len(authors)-1]
	}
}

// mlaAuthors uses the first author, appending "et al." for multiple.
func mlaAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return "Unknown Author"
	case 1:
		return authors[0]
	default:
		return strings.TrimSuffix(authors[0], ".") + ", et al."
	}
}

func firstOrUnknown(authors []string) string {
	if len(authors) == 0 {
		return "Unknown Author"
	}
	return authors[0]
}

// apaDate prefers the publication year, then the access date, then "n.d.".
func apaDate(c types.Citation) string {
	if c.Year > 0 {
		return fmt.Sprintf("%d", c.Year)
	}
	if c.Accessed != "" {
		return c.Accessed
	}
	return "n.d."
}

// ensurePeriod terminates s with exactly one period.
func ensurePeriod(s string) string {
	return strings.TrimSuffix(strings.TrimSpace(s), ".") + "."
}
