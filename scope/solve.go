package scope

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// anonymousNames are tried in order for symbols created without a name.
var anonymousNames = []string{"a", "b", "c", "d", "e", "f", "g", "h", "k", "m", "n", "x", "y", "z"}

func byID(a, b *binding.Symbol) int {
	return cmp.Compare(a.ID, b.ID)
}

// Solve makes the display names of every frame pairwise distinct and
// writes the final names into the identifier nodes. It needs the frames
// computed by BlockRefs.
//
// Anonymous symbols first get the preferred name least used by the symbols
// they share frames with. Then every name held by two symbols of one frame
// is disambiguated: symbols are visited in creation order and take the
// first variant not used by a co-occurring symbol of the same name and not
// already held by some other symbol. Names without conflicts are kept.
func Solve(reg *schema.Registry, table *binding.Table, events []stream.Event, opts Options) {
	log := opts.logger()
	field := reg.Scoping().Name

	var (
		frames [][]*binding.Symbol
		ids    []*stream.Value
		seen   = map[*binding.Block]bool{}
		held   = map[string]bool{}
	)

	for _, g := range table.Globals() {
		held[g.Name] = true
	}

	for _, e := range events {
		if !e.Enter || e.Value == nil {
			continue
		}

		v := e.Value

		if b := v.Block; b != nil && !seen[b] {
			seen[b] = true

			if len(b.Refs) > 0 {
				frame := slices.Clone(b.Refs)
				slices.SortFunc(frame, byID)
				frames = append(frames, frame)
			}
		}

		if v.Sym != nil {
			ids = append(ids, v)

			if v.Sym.Name != "" {
				held[v.Sym.Name] = true
			}
		}
	}

	nameAnonymous(frames, held, log)

	conflicts := map[string][][]*binding.Symbol{}

	for _, frame := range frames {
		groups := map[string][]*binding.Symbol{}
		for _, sym := range frame {
			groups[sym.Name] = append(groups[sym.Name], sym)
		}

		for name, g := range groups {
			if len(g) > 1 {
				conflicts[name] = append(conflicts[name], g)
			}
		}
	}

	names := make([]string, 0, len(conflicts))
	for name := range conflicts {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		rename(name, conflicts[name], held, opts.NameStyle, log)
	}

	for _, v := range ids {
		v.Node.Set(field, v.Sym.Name)
	}
}

func nameAnonymous(frames [][]*binding.Symbol, held map[string]bool, log *zap.Logger) {
	peers := map[*binding.Symbol][][]*binding.Symbol{}

	var anon []*binding.Symbol

	for _, frame := range frames {
		for _, sym := range frame {
			if !sym.Anonymous() {
				continue
			}

			if _, ok := peers[sym]; !ok {
				anon = append(anon, sym)
			}

			peers[sym] = append(peers[sym], frame)
		}
	}

	slices.SortFunc(anon, byID)

	for _, sym := range anon {
		used := map[string]int{}

		for _, frame := range peers[sym] {
			for _, other := range frame {
				if other != sym && other.Name != "" {
					used[other.Name]++
				}
			}
		}

		best, least := "", -1

		for _, cand := range anonymousNames {
			c := used[cand]
			if c == 0 {
				best = cand
				break
			}

			if least < 0 || c < least {
				best, least = cand, c
			}
		}

		sym.Name = best
		held[best] = true

		log.Debug("named anonymous symbol", zap.Int("id", sym.ID), zap.String("name", best))
	}
}

// rename disambiguates the symbols named name. groups lists, per frame,
// the symbols of that frame sharing the name, in creation order.
func rename(name string, groups [][]*binding.Symbol, held map[string]bool, style NameStyle, log *zap.Logger) {
	var syms []*binding.Symbol

	for _, g := range groups {
		for _, sym := range g {
			if !slices.Contains(syms, sym) {
				syms = append(syms, sym)
			}
		}
	}

	slices.SortFunc(syms, byID)

	for _, sym := range syms {
		sym.ResetDomain()
	}

	pending := make([][]*binding.Symbol, len(groups))
	copy(pending, groups)

	for _, sym := range syms {
		pos := 0

		var cand string

		for ; ; pos++ {
			if sym.Reserved(pos) {
				continue
			}

			cand = style.variant(name, pos)
			if pos > 0 && held[cand] {
				continue
			}

			break
		}

		if cand != sym.Name {
			log.Debug("renamed symbol", zap.Int("id", sym.ID), zap.String("from", sym.Name), zap.String("to", cand))
		}

		sym.Name = cand
		held[cand] = true

		for i, g := range pending {
			if len(g) == 0 || g[0] != sym {
				continue
			}

			pending[i] = g[1:]
			for _, other := range pending[i] {
				other.Reserve(pos)
			}
		}
	}
}
