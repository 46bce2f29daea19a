package stream

import (
	"iter"
	"strings"
)

// Comment is a note a pass attaches to a value for traces and dumps.
type Comment struct {
	Text string
	// Style is a free-form rendering hint, like "nodetype".
	Style string
}

// SetComment adds a comment to the open of e's value.
func SetComment(e Event, text, style string) {
	if e.Value == nil {
		return
	}

	e.Value.Comments = append(e.Value.Comments, Comment{Text: text, Style: style})
}

// SetEndComment adds a comment to the close of e's value.
func SetEndComment(e Event, text, style string) {
	if e.Value == nil {
		return
	}

	e.Value.EndComments = append(e.Value.EndComments, Comment{Text: text, Style: style})
}

// CopyComments appends the comments of from's value to to's value.
func CopyComments(from, to Event) {
	if from.Value == nil || to.Value == nil {
		return
	}

	to.Value.Comments = append(to.Value.Comments, from.Value.Comments...)
	to.Value.EndComments = append(to.Value.EndComments, from.Value.EndComments...)
}

// CleanComments drops every comment from the values it passes through.
func CleanComments(seq iter.Seq[Event]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for e := range seq {
			if e.Value != nil {
				e.Value.Comments = nil
				e.Value.EndComments = nil
			}

			if !yield(e) {
				return
			}
		}
	}
}

func formatComments(comments []Comment) string {
	texts := make([]string, len(comments))
	for i, c := range comments {
		texts[i] = c.Text
	}

	return "[" + strings.Join(texts, " ") + "]"
}
