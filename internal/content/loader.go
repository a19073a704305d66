package content

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattjoyce/redistq/internal/log"
)

// Resolver maps a (kind, name) token to the backend identifier for that
// content. Implemented by the backend client.
type Resolver interface {
	ResolveContent(ctx context.Context, kind Kind, name string) (id string, err error)
}

// Token is one unresolved work-list line, "kind:name".
type Token struct {
	Kind Kind
	Name string
	Line int // source line number, for error messages
}

// ParseToken parses a single "kind:name" line.
func ParseToken(s string) (Token, error) {
	kindPart, namePart, found := strings.Cut(s, ":")
	if !found {
		return Token{}, fmt.Errorf("malformed token %q: expected kind:name", s)
	}
	kind, err := ParseKind(kindPart)
	if err != nil {
		return Token{}, err
	}
	name := strings.TrimSpace(namePart)
	if name == "" {
		return Token{}, fmt.Errorf("malformed token %q: empty name", s)
	}
	return Token{Kind: kind, Name: name}, nil
}

// ReadTokenFile reads a newline-delimited token file. Blank lines and lines
// starting with '#' are skipped. A malformed line is a hard error: the work
// list must be fully valid before any dispatch starts.
func ReadTokenFile(path string) ([]Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open work list: %w", err)
	}
	defer f.Close()

	var tokens []Token
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tok, err := ParseToken(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		tok.Line = lineNo
		tokens = append(tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read work list: %w", err)
	}
	return tokens, nil
}

// Resolve turns tokens into a WorkList via the resolver. Resolution order
// defines Index order. Any resolution failure aborts the load: a partially
// resolved list would silently shift indexes.
func Resolve(ctx context.Context, tokens []Token, r Resolver) (*WorkList, error) {
	logger := log.WithComponent("worklist")

	items := make([]Item, 0, len(tokens))
	for _, tok := range tokens {
		id, err := r.ResolveContent(ctx, tok.Kind, tok.Name)
		if err != nil {
			return nil, fmt.Errorf("resolve %s %q: %w", tok.Kind, tok.Name, err)
		}
		items = append(items, Item{Kind: tok.Kind, ID: id, Name: tok.Name})
		logger.Debug("resolved item", "kind", tok.Kind.String(), "name", tok.Name, "id", id)
	}

	list, err := NewWorkList(items)
	if err != nil {
		return nil, err
	}
	logger.Info("work list resolved", "items", list.Len())
	return list, nil
}

// Load reads and resolves a work-list file in one step.
func Load(ctx context.Context, path string, r Resolver) (*WorkList, error) {
	tokens, err := ReadTokenFile(path)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("work list %s contains no items", path)
	}
	return Resolve(ctx, tokens, r)
}
