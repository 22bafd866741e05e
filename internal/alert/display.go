package alert

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName renders the kind for human-facing output, for example
// "price_change" becomes "Price Change".
func (k Kind) DisplayName() string {
	return titleCaser.String(strings.ReplaceAll(string(k), "_", " "))
}
