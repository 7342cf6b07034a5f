package answer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ReplyParser extracts an option index from a model reply.
type ReplyParser func(reply string) (int, bool)

var (
	digitRun   = regexp.MustCompile(`[0-9]+`)
	loneLetter = regexp.MustCompile(`(?i)\b([A-D])\b`)
)

// DigitParser takes the first run of decimal digits anywhere in the reply.
// A run too large for an int still counts as a match and yields
// math.MaxInt, which no option list can satisfy.
func DigitParser(reply string) (int, bool) {
	m := digitRun.FindString(reply)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}

// LetterParser maps the first standalone letter A-D (any case) to 0-3.
func LetterParser(reply string) (int, bool) {
	m := loneLetter.FindStringSubmatch(reply)
	if m == nil {
		return 0, false
	}
	return int(strings.ToUpper(m[1])[0] - 'A'), true
}

// DefaultParsers is applied in order; digits always win over letters.
var DefaultParsers = []ReplyParser{DigitParser, LetterParser}

// UnparseableReplyError carries a reply no parser understood.
type UnparseableReplyError struct {
	Reply string
}

func (e *UnparseableReplyError) Error() string {
	return fmt.Sprintf("unparseable reply: %q", e.Reply)
}

// ParseReply runs parsers in order and returns the first index found.
func ParseReply(reply string, parsers ...ReplyParser) (int, error) {
	if len(parsers) == 0 {
		parsers = DefaultParsers
	}
	for _, p := range parsers {
		if idx, ok := p(reply); ok {
			return idx, nil
		}
	}
	return 0, &UnparseableReplyError{Reply: reply}
}
