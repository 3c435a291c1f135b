// Package sqltext provides a lightly tokenized view of a SQL statement.
//
// A Query keeps the original text next to a masked copy of the same length in
// which string literal contents and comments are blanked out. Structural
// matching runs on the masked copy; anything copied into output is sliced from
// the original text at the same offsets, so casing and literals survive.
package sqltext

import (
	"regexp"
	"strings"
	"sync"
)

// literalFill replaces every byte inside a string literal.
const literalFill = '#'

// Syntax selects the lexical rules for string literals. The zero value is
// standard SQL: only single quotes delimit strings and '' is the escape.
type Syntax struct {
	// BackslashEscapes lets \' continue a literal instead of closing it
	BackslashEscapes bool
	// DoubleQuotedStrings treats "..." as a string literal, not an identifier
	DoubleQuotedStrings bool
}

// Span is a half-open byte range [Start, End) into a query.
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span covers no bytes or is unset.
func (s Span) Empty() bool { return s.Start < 0 || s.End <= s.Start }

// Query is an immutable SQL statement with its masked companion.
type Query struct {
	text   string
	masked string
	upper  string
}

// ClauseKeywords end a FROM or WHERE clause at the same nesting level.
var ClauseKeywords = []string{
	"WHERE", "GROUP BY", "ORDER BY", "HAVING", "LIMIT", "UNION", "INTERSECT",
	"EXCEPT", "MINUS", "FETCH", "OFFSET", "QUALIFY", "WINDOW", "CONNECT BY", "START WITH",
}

// New masks text with standard SQL literal rules and returns the query view.
func New(text string) *Query {
	return NewWithSyntax(text, Syntax{})
}

// NewWithSyntax masks text using the literal rules of syn.
func NewWithSyntax(text string, syn Syntax) *Query {
	masked := mask(text, syn)
	return &Query{text: text, masked: masked, upper: asciiUpper(masked)}
}

func (q *Query) Text() string   { return q.text }
func (q *Query) Masked() string { return q.masked }
func (q *Query) Upper() string  { return q.upper }
func (q *Query) Len() int       { return len(q.text) }

// All spans the whole statement.
func (q *Query) All() Span { return Span{0, len(q.text)} }

// Slice returns the original text covered by s, or "" for an unset span.
func (q *Query) Slice(s Span) string {
	if s.Empty() {
		return ""
	}
	return q.text[s.Start:s.End]
}

// Trim shrinks s so it neither starts nor ends with whitespace.
func (q *Query) Trim(s Span) Span {
	for s.Start < s.End && isSpace(q.text[s.Start]) {
		s.Start++
	}
	for s.End > s.Start && isSpace(q.text[s.End-1]) {
		s.End--
	}
	return s
}

// mask blanks comments with spaces and fills literal bodies, keeping the
// quotes and every byte offset intact.
func mask(text string, syn Syntax) string {
	const (
		stateNormal = iota
		stateLiteral
		stateLineComment
		stateBlockComment
	)

	out := []byte(text)
	state := stateNormal
	var quote byte
	for i := 0; i < len(out); i++ {
		c := text[i]
		switch state {
		case stateNormal:
			switch {
			case c == '\'' || (c == '"' && syn.DoubleQuotedStrings):
				state = stateLiteral
				quote = c
			case c == '-' && i+1 < len(text) && text[i+1] == '-':
				state = stateLineComment
				out[i] = ' '
			case c == '/' && i+1 < len(text) && text[i+1] == '*':
				state = stateBlockComment
				out[i], out[i+1] = ' ', ' '
				i++
			}
		case stateLiteral:
			if syn.BackslashEscapes && c == '\\' && i+1 < len(text) {
				out[i], out[i+1] = literalFill, literalFill
				i++
				continue
			}
			// a doubled quote re-enters on the next byte and stays inside the literal
			if c == quote {
				state = stateNormal
				continue
			}
			out[i] = literalFill
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				continue
			}
			out[i] = ' '
		case stateBlockComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = stateNormal
				continue
			}
			if c != '\n' {
				out[i] = ' '
			}
		}
	}
	return string(out)
}

func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

var keywordPatterns sync.Map

// keywordRegexp compiles kw ("GROUP BY") into a case-insensitive,
// word-bounded pattern that tolerates any whitespace between words.
func keywordRegexp(kw string) *regexp.Regexp {
	if re, ok := keywordPatterns.Load(kw); ok {
		return re.(*regexp.Regexp)
	}
	words := strings.Fields(kw)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	re := regexp.MustCompile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
	keywordPatterns.Store(kw, re)
	return re
}

// HasKeyword reports whether kw appears anywhere outside literals and comments.
func (q *Query) HasKeyword(kw string) bool {
	return keywordRegexp(kw).MatchString(q.masked)
}

// CountKeyword counts occurrences of kw outside literals and comments.
func (q *Query) CountKeyword(kw string) int {
	return len(keywordRegexp(kw).FindAllStringIndex(q.masked, -1))
}

// KeywordIndexes returns the start offset of every occurrence of kw.
func (q *Query) KeywordIndexes(kw string) []int {
	var out []int
	for _, loc := range keywordRegexp(kw).FindAllStringIndex(q.masked, -1) {
		out = append(out, loc[0])
	}
	return out
}

// keywordAt reports the end offset of kw if it starts exactly at i.
func (q *Query) keywordAt(i int, kw string) (int, bool) {
	if i > 0 && isWordByte(q.upper[i-1]) {
		return 0, false
	}
	pos := i
	for n, word := range strings.Fields(kw) {
		if n > 0 {
			start := pos
			for pos < len(q.upper) && isSpace(q.upper[pos]) {
				pos++
			}
			if pos == start {
				return 0, false
			}
		}
		if !strings.HasPrefix(q.upper[pos:], word) {
			return 0, false
		}
		pos += len(word)
	}
	if pos < len(q.upper) && isWordByte(q.upper[pos]) {
		return 0, false
	}
	return pos, true
}

// scanTop visits every offset in [from, to) that sits at the same
// parenthesis depth as from. It stops at an unbalanced ')' or when visit
// returns true, and returns the offset where it stopped.
func (q *Query) scanTop(from, to int, visit func(i int) bool) int {
	depth := 0
	for i := from; i < to; i++ {
		switch q.masked[i] {
		case '(':
			depth++
			continue
		case ')':
			if depth == 0 {
				return i
			}
			depth--
			continue
		}
		if depth == 0 && visit(i) {
			return i
		}
	}
	return to
}

// FindTopLevel returns the offset of the first kw in [from, to) at the
// nesting depth of from, or -1.
func (q *Query) FindTopLevel(kw string, from, to int) int {
	found := -1
	q.scanTop(from, to, func(i int) bool {
		if _, ok := q.keywordAt(i, kw); ok {
			found = i
			return true
		}
		return false
	})
	return found
}

// KeywordEnd returns the offset just past kw starting at i, or -1.
func (q *Query) KeywordEnd(i int, kw string) int {
	end, ok := q.keywordAt(i, kw)
	if !ok {
		return -1
	}
	return end
}

// ClauseEnd returns where the clause starting at start stops: the next
// clause keyword or ';' at the same depth, an unbalanced ')', or the end.
func (q *Query) ClauseEnd(start int) int {
	return q.scanTop(start, len(q.masked), func(i int) bool {
		if q.masked[i] == ';' {
			return true
		}
		for _, kw := range ClauseKeywords {
			if _, ok := q.keywordAt(i, kw); ok {
				return true
			}
		}
		return false
	})
}

// ClauseBody returns the body of the clause introduced by the keyword at i.
func (q *Query) ClauseBody(i int, kw string) Span {
	end, ok := q.keywordAt(i, kw)
	if !ok {
		return Span{-1, -1}
	}
	return Span{end, q.ClauseEnd(end)}
}

// ClauseSpans returns the body of every kw clause in the statement,
// including those inside subqueries.
func (q *Query) ClauseSpans(kw string) []Span {
	var spans []Span
	for _, i := range q.KeywordIndexes(kw) {
		if s := q.ClauseBody(i, kw); !s.Empty() {
			spans = append(spans, s)
		}
	}
	return spans
}

// MatchingParen returns the offset of the ')' closing the '(' at open, or -1.
func (q *Query) MatchingParen(open int) int {
	if open < 0 || open >= len(q.masked) || q.masked[open] != '(' {
		return -1
	}
	depth := 0
	for i := open; i < len(q.masked); i++ {
		switch q.masked[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// DepthAt returns how many parentheses are open at offset i.
func (q *Query) DepthAt(i int) int {
	depth := 0
	for j := 0; j < i && j < len(q.masked); j++ {
		switch q.masked[j] {
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return depth
}

// SplitTopLevel splits s on the keyword sep at its own nesting depth and
// returns trimmed, non-empty parts. When sep is AND, the AND belonging to a
// BETWEEN ... AND ... range is not treated as a separator.
func (q *Query) SplitTopLevel(s Span, sep string) []Span {
	var parts []Span
	start := s.Start
	pendingBetween := false
	q.scanTop(s.Start, s.End, func(i int) bool {
		if _, ok := q.keywordAt(i, "BETWEEN"); ok {
			pendingBetween = true
			return false
		}
		end, ok := q.keywordAt(i, sep)
		if !ok {
			return false
		}
		if sep == "AND" && pendingBetween {
			pendingBetween = false
			return false
		}
		parts = append(parts, Span{start, i})
		start = end
		return false
	})
	parts = append(parts, Span{start, s.End})

	out := parts[:0]
	for _, p := range parts {
		if p = q.Trim(p); !p.Empty() {
			out = append(out, p)
		}
	}
	return out
}

// SplitCommas splits s on commas at its own nesting depth.
func (q *Query) SplitCommas(s Span) []Span {
	var parts []Span
	start := s.Start
	q.scanTop(s.Start, s.End, func(i int) bool {
		if q.masked[i] == ',' {
			parts = append(parts, Span{start, i})
			start = i + 1
		}
		return false
	})
	parts = append(parts, Span{start, s.End})

	out := parts[:0]
	for _, p := range parts {
		if p = q.Trim(p); !p.Empty() {
			out = append(out, p)
		}
	}
	return out
}

// HasTopLevel reports whether kw occurs in s at the nesting depth of s.Start.
func (q *Query) HasTopLevel(s Span, kw string) bool {
	return q.FindTopLevel(kw, s.Start, s.End) >= 0
}

// Submatches runs re over the masked text of s and returns the group spans
// as absolute offsets. Unmatched groups are {-1, -1}; nil means no match.
func (q *Query) Submatches(re *regexp.Regexp, s Span) []Span {
	loc := re.FindStringSubmatchIndex(q.masked[s.Start:s.End])
	if loc == nil {
		return nil
	}
	spans := make([]Span, len(loc)/2)
	for g := range spans {
		if loc[2*g] < 0 {
			spans[g] = Span{-1, -1}
			continue
		}
		spans[g] = Span{s.Start + loc[2*g], s.Start + loc[2*g+1]}
	}
	return spans
}

// AllSubmatches is Submatches for every non-overlapping match in s.
func (q *Query) AllSubmatches(re *regexp.Regexp, s Span) [][]Span {
	var out [][]Span
	for _, loc := range re.FindAllStringSubmatchIndex(q.masked[s.Start:s.End], -1) {
		spans := make([]Span, len(loc)/2)
		for g := range spans {
			if loc[2*g] < 0 {
				spans[g] = Span{-1, -1}
				continue
			}
			spans[g] = Span{s.Start + loc[2*g], s.Start + loc[2*g+1]}
		}
		out = append(out, spans)
	}
	return out
}

// MentionsWord reports whether the identifier word appears in s as a whole
// word, ignoring case.
func (q *Query) MentionsWord(s Span, word string) bool {
	if word == "" || s.Empty() {
		return false
	}
	return keywordRegexp(word).MatchString(q.masked[s.Start:s.End])
}

// StartsWith reports whether the statement's first keyword is one of kws.
func (q *Query) StartsWith(kws ...string) bool {
	i := 0
	for i < len(q.upper) && (isSpace(q.upper[i]) || q.upper[i] == '(') {
		i++
	}
	for _, kw := range kws {
		if _, ok := q.keywordAt(i, kw); ok {
			return true
		}
	}
	return false
}
