package normalize

import "strings"

// CleanIdentity lowercases raw, strips one leading "@", and drops every rune
// outside [a-z0-9._]. It returns "" when nothing usable remains.
func CleanIdentity(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "@")

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if isIdentityRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isIdentityRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_'
}
