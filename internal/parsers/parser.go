// Package parsers turns uploaded brokerage statements into a normalized
// portfolio. Each parser either returns a populated portfolio or an error
// wrapping ErrParseFailed.
package parsers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dyike/PortfolioGo/models"
)

// ErrParseFailed signals that a statement did not have the expected layout.
var ErrParseFailed = errors.New("statement could not be parsed")

// Parser converts raw statement bytes into a portfolio.
type Parser interface {
	Parse(ctx context.Context, content []byte) (*models.Portfolio, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, content []byte) (*models.Portfolio, error)

func (f ParserFunc) Parse(ctx context.Context, content []byte) (*models.Portfolio, error) {
	return f(ctx, content)
}

// Registry maps lower-case file extensions to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns a registry with the csv, xlsx and pdf parsers installed.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}
	r.Register("csv", &CSVParser{})
	r.Register("xlsx", &XLSXParser{})
	r.Register("pdf", NewPDFParser())
	return r
}

// Register installs p for ext, replacing any previous parser.
func (r *Registry) Register(ext string, p Parser) {
	r.parsers[strings.ToLower(strings.TrimPrefix(ext, "."))] = p
}

// Lookup returns the parser for ext.
func (r *Registry) Lookup(ext string) (Parser, bool) {
	p, ok := r.parsers[strings.ToLower(ext)]
	return p, ok
}

// Extensions lists the registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	return exts
}

// Extension returns the lower-cased text after the last dot of name, or the
// whole lower-cased name when it has no dot.
func Extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

func parseFailed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParseFailed, fmt.Sprintf(format, args...))
}
