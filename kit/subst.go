package kit

import (
	"iter"

	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/stream"
)

// CompleteSubst removes Subst brackets. Every value inside a bracket is
// moved to the bracket's position, so a pass can splice several statements
// where the grammar expects one element.
func CompleteSubst(reg *schema.Registry) stream.Pass {
	return func(seq iter.Seq[stream.Event]) iter.Seq[stream.Event] {
		return Gen(func(out *Sink) {
			s := NewAuto(NewFragments(reg, nil), seq)
			defer s.Close()

			var (
				walk  func()
				subst func(pos schema.Tag)
			)

			subst = func(pos schema.Tag) {
				for e := range s.Sub() {
					if e.Type == schema.Subst {
						if e.IsOpen() {
							subst(e.Pos)
						}

						continue
					}

					if !out.Emit(s.PeelEvent(SetPos(e, pos))) {
						return
					}

					walk()
					out.EmitAll(s.Leave())
				}
			}

			walk = func() {
				for e := range s.Sub() {
					if e.Type == schema.Subst {
						if e.IsOpen() {
							subst(e.Pos)
						}

						continue
					}

					if !out.Emit(e) {
						return
					}
				}
			}

			walk()
		})
	}
}
