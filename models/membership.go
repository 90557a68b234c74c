package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"gorm.io/gorm/clause"
)

// Encoding identifies how a membership set is flattened into a text column.
type Encoding int

const (
	// BracketedList is the textual form of a numeric array, e.g. "[3,15,21]".
	BracketedList Encoding = iota
	// DelimitedList is a bare comma separated list, e.g. "casual,party".
	DelimitedList
)

const likeEscape = `\`

// Alternatives are the four shapes a member can take inside an encoded column:
// first of many, middle of many, last of many and the only element.
type Alternatives struct {
	Prefix string
	Infix  string
	Suffix string
	Exact  string
}

// MatchAlternatives returns the literal fragments identifying token inside a
// column encoded with enc. Every fragment is anchored on a delimiter or bracket,
// so "1" never matches a set holding only "21".
func MatchAlternatives(enc Encoding, token string) Alternatives {
	if enc == BracketedList {
		return Alternatives{
			Prefix: "[" + token + ",",
			Infix:  "," + token + ",",
			Suffix: "," + token + "]",
			Exact:  "[" + token + "]",
		}
	}
	return Alternatives{
		Prefix: token + ",",
		Infix:  "," + token + ",",
		Suffix: "," + token,
		Exact:  token,
	}
}

// Matches evaluates the alternatives against an encoded value in memory.
func (a Alternatives) Matches(encoded string) bool {
	return strings.HasPrefix(encoded, a.Prefix) ||
		strings.Contains(encoded, a.Infix) ||
		strings.HasSuffix(encoded, a.Suffix) ||
		encoded == a.Exact
}

// Expression builds the OR of the four alternatives against column. Fragments
// are bound as parameters with LIKE wildcards escaped.
func (a Alternatives) Expression(column clause.Column) clause.Expression {
	return clause.Or(a.exprs(column)...)
}

func (a Alternatives) exprs(column clause.Column) []clause.Expression {
	return []clause.Expression{
		like(column, escapeLike(a.Prefix)+"%"),
		like(column, "%"+escapeLike(a.Infix)+"%"),
		like(column, "%"+escapeLike(a.Suffix)),
		clause.Eq{Column: column, Value: a.Exact},
	}
}

// MembershipCondition matches rows whose encoded column contains any of tokens.
// It returns nil when tokens is empty: no tokens means no constraint.
func MembershipCondition(column clause.Column, enc Encoding, tokens []string) clause.Expression {
	if len(tokens) == 0 {
		return nil
	}
	exprs := make([]clause.Expression, 0, 4*len(tokens))
	for _, token := range tokens {
		exprs = append(exprs, MatchAlternatives(enc, token).exprs(column)...)
	}
	// a single flat OR: gorm joins a one-element OrConditions to its
	// neighbours with OR instead of AND
	return clause.Or(exprs...)
}

func like(column clause.Column, pattern string) clause.Expression {
	return clause.Expr{
		SQL:  "? LIKE ? ESCAPE '" + likeEscape + "'",
		Vars: []interface{}{column, pattern},
	}
}

var likeReplacer = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

func escapeLike(s string) string {
	return likeReplacer.Replace(s)
}

// EncodeIDs renders ids as a bracketed list. Duplicates are dropped, first
// occurrence wins.
func EncodeIDs(ids []uint) string {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	b, _ := json.Marshal(unique)
	return string(b)
}

// DecodeIDs parses a bracketed list. An empty column decodes to no ids.
func DecodeIDs(encoded string) ([]uint, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(encoded), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// EncodeTokens renders tokens as a bare comma separated list. Tokens are
// trimmed; empty and repeated tokens are dropped.
func EncodeTokens(tokens []string) string {
	return strings.Join(normalizeTokens(tokens), ",")
}

// DecodeTokens splits a comma separated list, trimming tokens and discarding
// empty ones.
func DecodeTokens(encoded string) []string {
	return normalizeTokens(strings.Split(encoded, ","))
}

func normalizeTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func idTokens(ids []uint) []string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = strconv.FormatUint(uint64(id), 10)
	}
	return tokens
}
