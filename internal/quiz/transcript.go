package quiz

import (
	"fmt"
	"io"
)

// Source records how an entry's choice was obtained.
type Source int

const (
	SourceModel Source = iota
	SourceRandomFallback
	SourceClickFallback
)

func (s Source) String() string {
	switch s {
	case SourceModel:
		return "model"
	case SourceRandomFallback:
		return "random"
	case SourceClickFallback:
		return "first-option"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Entry is one answered question. ChosenIndex is always a valid index into
// Options.
type Entry struct {
	Question     string
	Options      []string
	ChosenIndex  int
	ChosenAnswer string
	Source       Source
}

func newEntry(question string, options []string, chosen int, src Source) Entry {
	answer := ""
	if chosen >= 0 && chosen < len(options) {
		answer = options[chosen]
	}
	return Entry{
		Question:     question,
		Options:      append([]string(nil), options...),
		ChosenIndex:  chosen,
		ChosenAnswer: answer,
		Source:       src,
	}
}

// Result is what a finished session leaves behind.
type Result struct {
	SessionID  string
	Score      string
	Transcript []Entry
}

// Print writes the score and the full transcript.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintln(w, "\n=== FINAL ===")
	fmt.Fprintln(w, "Score:", r.Score)

	fmt.Fprintln(w, "\n=== QUIZ LOG ===")
	for i, e := range r.Transcript {
		fmt.Fprintf(w, "\nQ%d: %s\n", i+1, e.Question)
		for idx, opt := range e.Options {
			mark := "  "
			if idx == e.ChosenIndex {
				mark = ">>"
			}
			fmt.Fprintf(w, "%s [%d] %s\n", mark, idx, opt)
		}
		fmt.Fprintf(w, "Chosen: [%d] %s\n", e.ChosenIndex, e.ChosenAnswer)
	}
}
