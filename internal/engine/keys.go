package engine

import "strings"

// nmiVariants distinguishes NMI merchant accounts by folder keyword.
var nmiVariants = map[string]string{
	"chesapeak": "nmi_chesapeake", // tolerate the misspelled folder too
	"cliq":      "nmi_cliq",
	"esquire":   "nmi_esquire",
}

// ProcessorKey derives the stable processor key from a configured folder
// name, e.g. "Braintree Reports" -> "braintree" and "NMI Cliq" ->
// "nmi_cliq". Unrecognized folders slug down to lowercase with underscores.
func ProcessorKey(folder string) string {
	f := strings.ToLower(folder)
	switch {
	case strings.Contains(f, "braintree"):
		return "braintree"
	case strings.Contains(f, "stripe"):
		return "stripe"
	case strings.Contains(f, "nmi"):
		for kw, key := range nmiVariants {
			if strings.Contains(f, kw) {
				return key
			}
		}
		return "nmi"
	}
	slug := strings.ReplaceAll(strings.TrimSpace(f), " ", "_")
	return strings.TrimSuffix(slug, "_reports")
}
