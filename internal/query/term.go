package query

import (
	"regexp"
	"strings"
)

// TermClass is the shape of a free-text query value.
type TermClass int

const (
	TermSingle TermClass = iota
	TermMultiword
	TermPhrase
	TermBoolean
)

func (c TermClass) String() string {
	switch c {
	case TermMultiword:
		return "multiword"
	case TermPhrase:
		return "phrase"
	case TermBoolean:
		return "boolean"
	default:
		return "single"
	}
}

var (
	reservedChars = strings.NewReplacer(
		"&", "", "|", "", "!", "", "(", "", ")", "",
		"{", "", "}", "", "[", "", "]", "", "^", "",
		"~", "", ":", "", "'", "",
	)
	booleanToken = regexp.MustCompile(`(^|\s)(AND|OR)(\s|$)`)
)

// Clean trims and squeezes whitespace and removes query-string syntax
// characters that are not allowed in user input. An unpaired trailing
// double quote is dropped.
func Clean(s string) string {
	s = reservedChars.Replace(s)
	if strings.Count(s, `"`)%2 == 1 {
		i := strings.LastIndex(s, `"`)
		s = s[:i] + s[i+1:]
	}
	return strings.Join(strings.Fields(s), " ")
}

// ClassifyTerm classifies an already cleaned query value.
func ClassifyTerm(q string) TermClass {
	if !strings.Contains(q, " ") {
		if strings.Count(q, `"`) >= 2 {
			return TermPhrase
		}
		return TermSingle
	}
	if booleanToken.MatchString(q) {
		return TermBoolean
	}
	if strings.Count(q, `"`) >= 2 {
		return TermPhrase
	}
	return TermMultiword
}

func fuzzy(tok string) string {
	if tok == "*" || strings.HasSuffix(tok, "*") {
		return tok
	}
	return tok + " OR " + tok + "*"
}

func expandWords(words []string) string {
	groups := make([]string, len(words))
	for i, w := range words {
		groups[i] = "(" + fuzzy(w) + ")"
	}
	return strings.Join(groups, " AND ")
}

// Expand rewrites a raw query value into query-string syntax. Single terms
// gain a prefix alternative, multiword input becomes an AND chain of such
// alternatives (or a plain OR list when orOperator is set), quoted phrases
// have their interior expanded while text around the quotes is kept, and
// boolean input passes through untouched.
func Expand(raw string, orOperator bool) string {
	q := Clean(raw)
	if q == "" {
		return "*"
	}

	switch ClassifyTerm(q) {
	case TermBoolean:
		return q
	case TermPhrase:
		return expandPhrase(q)
	case TermMultiword:
		words := strings.Fields(q)
		if orOperator {
			return strings.Join(words, " OR ")
		}
		return expandWords(words)
	default:
		return fuzzy(q)
	}
}

func expandPhrase(q string) string {
	open := strings.Index(q, `"`)
	end := strings.Index(q[open+1:], `"`) + open + 1

	before := strings.TrimSpace(q[:open])
	inner := strings.Fields(q[open+1 : end])
	after := strings.TrimSpace(strings.ReplaceAll(q[end+1:], `"`, ""))

	between := ""
	switch len(inner) {
	case 0:
	case 1:
		between = inner[0]
	default:
		between = expandWords(inner)
	}

	var parts []string
	for _, p := range []string{before, between, after} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// QueryString is a query_string clause against a default field or a list of
// fields.
type QueryString struct {
	Query        string
	DefaultField string
	Fields       []string
}

func (q *QueryString) Source() (interface{}, error) {
	body := map[string]interface{}{
		"query": q.Query,
	}
	if len(q.Fields) > 0 {
		body["fields"] = q.Fields
	} else if q.DefaultField != "" {
		body["default_field"] = q.DefaultField
	}
	return map[string]interface{}{"query_string": body}, nil
}

var multiFieldPattern = regexp.MustCompile(`^(.+)\.\*`)

func fieldQuery(fieldArg, query string) *QueryString {
	qs := &QueryString{Query: query}

	parts := strings.Split(fieldArg, ",")
	var fields []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}

	if len(fields) > 1 || multiFieldPattern.MatchString(fieldArg) {
		qs.Fields = fields
	} else {
		qs.DefaultField = strings.TrimSpace(fieldArg)
	}

	return qs
}
