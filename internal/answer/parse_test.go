package answer

import (
	"errors"
	"math"
	"testing"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		reply string
		want  int
	}{
		{"2", 2},
		{"The answer is 2", 2},
		{"Option 3, not 1", 3},
		{"B is wrong, 1 is right", 1},
		{"Answer: C (index 2)", 2},
		{"B", 1},
		{"b", 1},
		{"I think (d).", 3},
		{"A", 0},
		{"10", 10},
	}
	for _, tt := range tests {
		got, err := ParseReply(tt.reply)
		if err != nil {
			t.Errorf("ParseReply(%q) error: %v", tt.reply, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseReply(%q) = %d, want %d", tt.reply, got, tt.want)
		}
	}
}

func TestParseReplyUnparseable(t *testing.T) {
	for _, reply := range []string{
		"I'm not sure",
		"Every option looks wrong",
		"E",
		"BC",
	} {
		_, err := ParseReply(reply)
		var ue *UnparseableReplyError
		if !errors.As(err, &ue) {
			t.Errorf("ParseReply(%q) err = %v, want *UnparseableReplyError", reply, err)
			continue
		}
		if ue.Reply != reply {
			t.Errorf("UnparseableReplyError.Reply = %q, want %q", ue.Reply, reply)
		}
	}
}

func TestDigitParserOverflow(t *testing.T) {
	n, ok := DigitParser("99999999999999999999999999")
	if !ok || n != math.MaxInt {
		t.Errorf("DigitParser = %d, %v; want MaxInt, true", n, ok)
	}
}

func TestParseReplyOverflowBeatsLetter(t *testing.T) {
	got, err := ParseReply("99999999999999999999 B")
	if err != nil {
		t.Fatal(err)
	}
	if got != math.MaxInt {
		t.Errorf("ParseReply = %d, want the digit match (MaxInt), not the letter", got)
	}
}

func TestParseReplyCustomOrder(t *testing.T) {
	got, err := ParseReply("B then 3", LetterParser, DigitParser)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("letter-first order = %d, want 1", got)
	}
}
