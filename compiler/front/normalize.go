package front

import "strings"

// longformRule is one whole-word phrase substitution applied, in order,
// while normalizing long-form source to the compact core dialect. Phrases
// are matched on word boundaries only: "end" must not fire inside an
// identifier such as "weekend" (spec.md §9 design note (b)).
type longformRule struct {
	from string
	to   string
}

// phraseRules is deliberately an ordered slice, not a map, so the
// long-form vocabulary can grow (e.g. a future "greatest_of"/"least_of"
// pair of aliases for max/min) without disturbing match order.
var phraseRules = []longformRule{
	{"declare explicit integer named", "let int"},
	{"declare implicit named", "let"},
	{"equals", "="},
	{"end", ""},
	{"plus", "+"},
	{"module", "module"},
	{"scope", "scope"},
	{"range", "range"},
	{"return", "return"},
}

// Normalize rewrites long-form phrases to their compact core spelling and
// strips ';'-comments, one line at a time. It preserves the line count
// and is idempotent on text already in the core dialect (spec.md §4.1,
// property P2).
//
// The "end" rule deletes every whole-word "end" on a line that holds
// other text too (e.g. the trailing "end" of a "declare ... end" line,
// but equally an "end" placed after a statement on one line); a line whose
// entire content, once comments are stripped, is the single word "end"
// is left alone, since that is the grammar's own KwEnd closing a scope
// or if block (spec.md §4.2-§4.3), not a long-form phrase to elide.
func Normalize(src string) string {
	lines := strings.Split(src, "\n")

	for i, line := range lines {
		if sc := strings.IndexByte(line, ';'); sc >= 0 {
			line = line[:sc]
		}

		soleEnd := strings.TrimSpace(line) == "end"

		for _, r := range phraseRules {
			if r.from == "end" && soleEnd {
				continue
			}

			line = replaceWord(line, r.from, r.to)
		}

		lines[i] = strings.TrimSpace(line)
	}

	return strings.Join(lines, "\n")
}

// replaceWord substitutes every whole-word, case-sensitive occurrence of
// from with to. A deleted word (to == "") is replaced by a single space
// so tokens on either side don't fuse together; the whitespace already
// around it is kept.
func replaceWord(line, from, to string) string {
	var b strings.Builder

	i := 0
	for i < len(line) {
		j := strings.Index(line[i:], from)
		if j < 0 {
			b.WriteString(line[i:])
			break
		}

		j += i
		end := j + len(from)

		if isWordBoundary(line, j) && isWordBoundary(line, end) {
			b.WriteString(line[i:j])
			if to == "" {
				b.WriteByte(' ')
			} else {
				b.WriteString(to)
			}
			i = end

			continue
		}

		b.WriteString(line[i : j+1])
		i = j + 1
	}

	return b.String()
}

func isWordBoundary(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}

	return !isWordByte(s[i-1]) || !isWordByte(s[i])
}

func isWordByte(c byte) bool {
	return c == '_' ||
		c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9'
}
