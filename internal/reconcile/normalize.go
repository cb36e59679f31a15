package reconcile

import (
	"regexp"
	"strings"
)

var (
	apostropheFolder = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'", "ʼ", "'", "′", "'")
	quoteFolder      = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`, "‟", `"`)
	dashFolder       = strings.NewReplacer("–", "-", "—", "-")

	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
	disallowed    = regexp.MustCompile(`[^\w\s'-]`)
)

// lookupForm is the form used for correction dictionary keys.
func lookupForm(name string) string {
	return strings.TrimSpace(apostropheFolder.Replace(strings.ToLower(name)))
}

// Key returns the grouping key used to detect duplicate group names:
// lowercase, apostrophe/quote/dash variants folded, whitespace collapsed,
// everything but word characters, spaces, apostrophes and hyphens removed.
func Key(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ToLower(name)
	s = apostropheFolder.Replace(s)
	s = quoteFolder.Replace(s)
	s = dashFolder.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = disallowed.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
