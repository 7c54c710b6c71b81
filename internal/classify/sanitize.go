package classify

import "strings"

// SanitizeDirName makes name safe to use as a single directory level.
// Path separators, reserved characters and ASCII control characters become
// underscores; everything else, case included, is kept. Names made only of
// dots are replaced entirely so they cannot address a parent directory.
func SanitizeDirName(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.Trim(out, ".") == "" {
		return strings.Repeat("_", len(out))
	}
	return out
}
