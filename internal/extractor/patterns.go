package extractor

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/pkg/errors"

	apperrors "tracking-reconciliation-service/pkg/errors"
)

// Pattern is one compiled tracking-code expression.
type Pattern struct {
	Name string
	Expr *regexp.Regexp
}

// PatternSet is a named, versioned, ordered list of patterns. Order matters:
// within a cell, all matches of the first pattern are reported before any
// match of the second.
type PatternSet struct {
	Name     string
	Version  int
	Patterns []Pattern
}

// Built-in pattern set names.
const (
	DefaultPatternSet   = "default"
	CellValuePatternSet = "cell-value"
	EzpayPatternSet     = "ezpay"
)

type namedExpr struct {
	name string
	expr string
}

var builtinSets = map[string]struct {
	version int
	exprs   []namedExpr
}{
	DefaultPatternSet: {
		version: 1,
		exprs: []namedExpr{
			{"long-number", `\b\d{5,30}\b`},
			{"alphanumeric", `[A-Za-z0-9]{10,30}`},
			{"tr-prefixed", `TR-\d+`},
			{"trk-prefixed", `TRK\d+`},
			{"uuid", `\b[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+\b`},
			{"wallex-uuid", `wallex-[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+`},
		},
	},
	CellValuePatternSet: {
		version: 1,
		exprs:   []namedExpr{{"whole-cell", `(?s)^.+$`}},
	},
	EzpayPatternSet: {
		version: 1,
		exprs:   []namedExpr{{"ez-prefixed", `(?i)^ez\d+`}},
	},
}

// CompilePatternSet compiles exprs in order. Patterns are named pattern_1,
// pattern_2, ... An invalid expression yields a configuration error naming
// its position.
func CompilePatternSet(name string, version int, exprs []string) (*PatternSet, error) {
	named := make([]namedExpr, len(exprs))
	for i, e := range exprs {
		named[i] = namedExpr{name: fmt.Sprintf("pattern_%d", i+1), expr: e}
	}
	return compile(name, version, named)
}

// BuiltinPatternSet returns a fresh copy of a built-in set.
func BuiltinPatternSet(name string) (*PatternSet, error) {
	def, ok := builtinSets[name]
	if !ok {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "patterns.name", name, nil).
			WithSuggestion(fmt.Sprintf("use one of %v or supply patterns.expressions", BuiltinNames()))
	}
	return compile(name, def.version, def.exprs)
}

// BuiltinNames lists the built-in pattern set names, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinSets))
	for n := range builtinSets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func compile(name string, version int, exprs []namedExpr) (*PatternSet, error) {
	set := &PatternSet{Name: name, Version: version, Patterns: make([]Pattern, 0, len(exprs))}
	for i, e := range exprs {
		re, err := regexp.Compile(e.expr)
		if err != nil {
			setting := fmt.Sprintf("patterns.expressions[%d]", i)
			return nil, apperrors.ConfigurationError(apperrors.CodeInvalidPattern, setting, e.expr,
				errors.Wrapf(err, "compile pattern set %s v%d", name, version))
		}
		set.Patterns = append(set.Patterns, Pattern{Name: e.name, Expr: re})
	}
	return set, nil
}

// Expressions returns the source text of every pattern in order.
func (p *PatternSet) Expressions() []string {
	out := make([]string, len(p.Patterns))
	for i, pat := range p.Patterns {
		out[i] = pat.Expr.String()
	}
	return out
}

// String returns the set's name and version
func (p *PatternSet) String() string {
	return fmt.Sprintf("%s v%d", p.Name, p.Version)
}

// FindAll returns every match in text, pattern order first and then match
// position. Duplicates are kept.
func (p *PatternSet) FindAll(text string) []string {
	var out []string
	for _, pat := range p.Patterns {
		out = append(out, pat.Expr.FindAllString(text, -1)...)
	}
	return out
}

// FindUnique returns the non-empty matches of text in FindAll order, keeping
// the first occurrence of each code. Codes already in seen are skipped and
// new ones are added to it; a nil seen dedups within text only.
func (p *PatternSet) FindUnique(text string, seen map[string]bool) []string {
	if seen == nil {
		seen = make(map[string]bool)
	}
	var out []string
	for _, code := range p.FindAll(text) {
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}
