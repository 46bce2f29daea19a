package kit

import (
	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/schema"
)

// ToBlockBody opens a statement list at the next input statement, so a pass
// can emit statements around it. A block statement is peeled down to its
// list. A statement that already sits in a list gets a Subst bracket (see
// CompleteSubst); any other statement gets a new block. Statements go into
// the list at schema.Push, existing ones are best moved with CopyAt.
//
// The returned function copies the statements the caller left unread and
// closes what ToBlockBody opened.
func (a *Auto) ToBlockBody(out *Sink) func() {
	frags := a.reg.Fragments()

	cur, ok := a.CurLev()
	if !ok {
		estream.Raise(estream.Errorf(estream.StructuralError, estream.ErrNotOpen, "no statement to extend"))
	}

	if frags.Block == 0 {
		estream.Raise(estream.Errorf(estream.SchemaError, estream.ErrInvalidSchema, "grammar declares no block statement"))
	}

	if cur.Type == frags.Block && cur.IsOpen() {
		out.Emit(a.Peel())

		if _, ok := a.PeelTo(out, frags.BlockBody); !ok {
			out.Emit(a.Enter(frags.BlockBody, schema.ArrayTag, nil))
		}

		return func() {
			out.EmitAll(a.Sub())
			out.EmitAll(a.Leave())
			out.EmitAll(a.Sub())
			out.EmitAll(a.Leave())
		}
	}

	leaves := 1

	if cur.Pos == schema.Push {
		out.Emit(a.Enter(schema.Push, schema.Subst, nil))
	} else {
		out.Emit(a.Enter(cur.Pos, frags.Block, nil))
		out.Emit(a.Enter(frags.BlockBody, schema.ArrayTag, nil))

		leaves = 2
	}

	return func() {
		if e, ok := a.CurLev(); ok && e.Value == cur.Value {
			a.CopyAt(out, schema.Push)
		}

		for range leaves {
			out.EmitAll(a.Leave())
		}
	}
}

// InBlockBody runs body inside the statement list ToBlockBody opens.
func (a *Auto) InBlockBody(out *Sink, body func()) {
	done := a.ToBlockBody(out)
	body()
	done()
}

// CopyAt copies the next value with its subtree, moving it to pos.
func (a *Auto) CopyAt(out *Sink, pos schema.Tag) {
	e, ok := a.Take()
	if !ok {
		estream.Raise(estream.Errorf(estream.StructuralError, estream.ErrNotOpen, "stream is exhausted"))
	}

	out.Emit(a.PeelEvent(SetPos(e, pos)))
	out.EmitAll(a.Sub())
	out.EmitAll(a.Leave())
}
