package kit

import (
	"strings"
	"sync"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/tree"
)

// FragmentParser turns source text into a tree of the registry's grammar.
type FragmentParser interface {
	Parse(src string) (*tree.Node, error)
}

// FragmentMode selects what a fragment source stands for.
type FragmentMode int

const (
	// FragmentStatement is a single statement (no prefix).
	FragmentStatement FragmentMode = iota
	// FragmentExpression is an expression ("=" prefix).
	FragmentExpression
	// FragmentList is a statement list ("*" prefix).
	FragmentList
	// FragmentDeclarator is a single declarator (">" prefix).
	FragmentDeclarator
)

// SplitMode strips the mode prefix off src.
func SplitMode(src string) (FragmentMode, string) {
	if src == "" {
		return FragmentStatement, src
	}

	switch src[0] {
	case '=':
		return FragmentExpression, src[1:]
	case '*':
		return FragmentList, src[1:]
	case '>':
		return FragmentDeclarator, src[1:]
	}

	return FragmentStatement, src
}

// Fragments parses and caches source fragments. The cache is owned by the
// instance; share one instance between passes to share the cache.
type Fragments struct {
	reg    *schema.Registry
	parser FragmentParser

	mu   sync.Mutex
	memo map[string][]*tree.Node
}

// NewFragments creates a fragment cache. parser may be nil for passes that
// never use templates.
func NewFragments(reg *schema.Registry, parser FragmentParser) *Fragments {
	return &Fragments{reg: reg, parser: parser, memo: map[string][]*tree.Node{}}
}

// Registry returns the registry fragments are produced against.
func (f *Fragments) Registry() *schema.Registry {
	return f.reg
}

// Nodes returns fresh copies of the trees src stands for.
func (f *Fragments) Nodes(src string) ([]*tree.Node, error) {
	f.mu.Lock()
	nodes, ok := f.memo[src]
	f.mu.Unlock()

	if !ok {
		var err error

		nodes, err = f.cut(src)
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		f.memo[src] = nodes
		f.mu.Unlock()
	}

	res := make([]*tree.Node, len(nodes))
	for i, n := range nodes {
		res[i] = n.DeepCopy()
	}

	return res, nil
}

// Events returns fresh events for src placed at pos.
func (f *Fragments) Events(pos schema.Tag, src string) ([]stream.Event, error) {
	nodes, err := f.Nodes(src)
	if err != nil {
		return nil, err
	}

	var res []stream.Event

	for _, n := range nodes {
		events, err := stream.Collect(stream.Produce(f.reg, n, pos))
		if err != nil {
			return nil, err
		}

		res = append(res, events...)
	}

	return res, nil
}

func (f *Fragments) cut(src string) ([]*tree.Node, error) {
	if f.parser == nil {
		return nil, estream.Errorf(estream.PatternError, estream.ErrNoFragmentParser, "%q", src)
	}

	conv := f.reg.Fragments()
	mode, body := SplitMode(src)

	if mode == FragmentDeclarator {
		body = conv.Declarator.Prefix + body
	}

	root, err := f.parser.Parse(body)
	if err != nil {
		return nil, &estream.Error{Kind: estream.PatternError, Err: estream.ErrBadPattern, Msg: err.Error()}
	}

	list := root
	for _, name := range conv.Body {
		list = list.Child(name)
	}

	if list == nil || list.Kind != tree.Array {
		return nil, estream.Errorf(estream.PatternError, estream.ErrBadPattern, "%q has no statement list", src)
	}

	if mode == FragmentList {
		return list.Elems, nil
	}

	if len(list.Elems) != 1 {
		return nil, estream.Errorf(estream.PatternError, estream.ErrBadPattern, "%q must be exactly one statement", strings.TrimSpace(src))
	}

	stmt := list.Elems[0]

	switch mode {
	case FragmentExpression:
		if stmt.Type != f.reg.Name(conv.Wrapper) {
			return nil, estream.Errorf(estream.PatternError, estream.ErrBadPattern, "%q is not an expression", src)
		}

		return []*tree.Node{stmt.Child(conv.Expression)}, nil

	case FragmentDeclarator:
		decls := stmt.Child(conv.Declarator.Field)
		if decls == nil || len(decls.Elems) != 1 {
			return nil, estream.Errorf(estream.PatternError, estream.ErrBadPattern, "%q is not a single declarator", src)
		}

		return []*tree.Node{decls.Elems[0]}, nil
	}

	return []*tree.Node{stmt}, nil
}
