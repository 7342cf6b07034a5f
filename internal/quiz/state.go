package quiz

import "fmt"

// State is the driver's position in a session.
type State int

const (
	NotStarted State = iota
	Started
	AskingQuestion
	Answering
	Advancing
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Started:
		return "started"
	case AskingQuestion:
		return "asking"
	case Answering:
		return "answering"
	case Advancing:
		return "advancing"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
