package mail

import "strings"

// ReplaceCIDURLs performs textual substitution of cid:ID, "cid:ID", and
// 'cid:ID' with the corresponding file URL, in the appropriate quoting. No
// HTML parsing is required (spec.md §4.2).
func ReplaceCIDURLs(html string, mapping map[string]string) string {
	out := html
	for cid, fileURL := range mapping {
		out = strings.ReplaceAll(out, `"cid:`+cid+`"`, `"`+fileURL+`"`)
		out = strings.ReplaceAll(out, `'cid:`+cid+`'`, `'`+fileURL+`'`)
		out = strings.ReplaceAll(out, `cid:`+cid, fileURL)
	}
	return out
}
