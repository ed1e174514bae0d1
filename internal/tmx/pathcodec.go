package tmx

import "strings"

// KeySeparator joins path segments inside object keys.
const KeySeparator = "/"

// Slug converts a human-readable folder label into a storage-safe key
// segment: surrounding whitespace trimmed, lower-cased, spaces replaced by
// underscores, key separators replaced so a label can never introduce
// extra path levels. Slug is idempotent: Slug(Slug(s)) == Slug(s).
func Slug(label string) string {
	if label == "" {
		return ""
	}
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, KeySeparator, "_")
	return s
}

// Prettify converts a slugged key segment back into a display label.
// This is a best-effort inverse of Slug (underscores become spaces); labels
// that originally contained underscores or separators are not recovered
// byte-exactly, but re-slugging the result always yields the same segment.
func Prettify(segment string) string {
	if segment == "" {
		return ""
	}
	return strings.ReplaceAll(segment, "_", " ")
}

// BuildKey assembles a full object key from up to four folder labels and a
// filename. Empty labels are dropped, non-empty ones are slugged, and the
// filename is appended verbatim, never transformed. The result never
// contains empty or doubled separators.
func BuildKey(area, sub1, sub2, sub3, filename string) string {
	parts := make([]string, 0, 5)
	for _, label := range []string{area, sub1, sub2, sub3} {
		if s := Slug(label); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, filename)
	return strings.Join(parts, KeySeparator)
}

// SplitKey splits a full object key into its segments.
func SplitKey(key string) []string {
	return strings.Split(key, KeySeparator)
}

// SplitObjectKey splits an object key into its folder segments and the
// final filename. A key without separators is a bare filename at the
// bucket root.
func SplitObjectKey(key string) (folders []string, filename string) {
	segments := SplitKey(key)
	return segments[:len(segments)-1], segments[len(segments)-1]
}

// FolderPrefix returns the listing prefix for the folder that holds key:
// everything up to and including the last separator, or "" for a key at
// the bucket root.
func FolderPrefix(key string) string {
	idx := strings.LastIndex(key, KeySeparator)
	if idx < 0 {
		return ""
	}
	return key[:idx+1]
}
