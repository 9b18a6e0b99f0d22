// Package drive talks to the Google Drive v3 files API on behalf of a connected user.
package drive

import (
	"fmt"
	"strings"

	"github.com/pysugar/drive-nexus/internal/apperr"
)

// Category is an application-level media type filter.
type Category int

const (
	CategoryAll Category = iota
	CategoryFolder
	CategoryPDF
	CategoryDocument
	CategoryPresentation
	CategoryImage
	CategoryVideo
)

var categoryNames = map[string]Category{
	"":             CategoryAll,
	"all":          CategoryAll,
	"folder":       CategoryFolder,
	"pdf":          CategoryPDF,
	"document":     CategoryDocument,
	"presentation": CategoryPresentation,
	"image":        CategoryImage,
	"video":        CategoryVideo,
}

// ParseCategory maps the client's mimeType parameter to a Category.
func ParseCategory(s string) (Category, error) {
	c, ok := categoryNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return CategoryAll, apperr.New(apperr.InvalidArgument, fmt.Sprintf("unsupported mimeType %q", s))
	}
	return c, nil
}

func (c Category) String() string {
	for name, v := range categoryNames {
		if v == c && name != "" {
			return name
		}
	}
	return "all"
}

// predicate is one term of a disjunction over mimeType.
type predicate struct {
	op    string // "=" or "contains"
	value string
}

// categoryPredicates lists, per category, the MIME types that count as a match.
// Documents and presentations include both native and legacy/OOXML office formats.
var categoryPredicates = map[Category][]predicate{
	CategoryFolder: {{"=", "application/vnd.google-apps.folder"}},
	CategoryPDF:    {{"=", "application/pdf"}},
	CategoryDocument: {
		{"=", "application/vnd.google-apps.document"},
		{"=", "application/msword"},
		{"=", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	},
	CategoryPresentation: {
		{"=", "application/vnd.google-apps.presentation"},
		{"=", "application/vnd.ms-powerpoint"},
		{"=", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	},
	CategoryImage: {{"contains", "image/"}},
	CategoryVideo: {{"contains", "video/"}},
}

// Escape prepares s for use inside a single-quoted string literal of the Drive query language.
func Escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// Query builds a Drive files.list q expression. Clauses are joined with "and".
type Query struct {
	clauses []string
}

func NewQuery() *Query { return &Query{} }

// InParents restricts results to direct children of folderID.
func (q *Query) InParents(folderID string) *Query {
	q.clauses = append(q.clauses, fmt.Sprintf("'%s' in parents", Escape(folderID)))
	return q
}

func (q *Query) NotTrashed() *Query {
	q.clauses = append(q.clauses, "trashed = false")
	return q
}

// NameContains adds a name substring match. Empty text adds nothing.
func (q *Query) NameContains(text string) *Query {
	if text == "" {
		return q
	}
	q.clauses = append(q.clauses, fmt.Sprintf("name contains '%s'", Escape(text)))
	return q
}

// OfCategory adds the MIME type predicate for c. CategoryAll adds nothing.
func (q *Query) OfCategory(c Category) *Query {
	preds := categoryPredicates[c]
	if len(preds) == 0 {
		return q
	}

	terms := make([]string, len(preds))
	for i, p := range preds {
		terms[i] = fmt.Sprintf("mimeType %s '%s'", p.op, Escape(p.value))
	}
	if len(terms) == 1 {
		q.clauses = append(q.clauses, terms[0])
	} else {
		q.clauses = append(q.clauses, "("+strings.Join(terms, " or ")+")")
	}
	return q
}

func (q *Query) String() string {
	return strings.Join(q.clauses, " and ")
}
