package chatbot

import (
	"math/rand/v2"
	"slices"
	"strings"
)

// Reply is what the assistant says back, with optional follow-up chips.
type Reply struct {
	Text    string
	Options []string
}

// RandomSource picks stock replies. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Dispatcher maps input to a reply. It keeps no state between calls and is
// safe for concurrent use when its RandomSource is.
type Dispatcher struct {
	table *Table
	rnd   RandomSource
}

// NewDispatcher uses the process-wide random source when rnd is nil.
func NewDispatcher(table *Table, rnd RandomSource) *Dispatcher {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Dispatcher{table: table, rnd: rnd}
}

// Greeting is the first assistant entry of every transcript.
func (d *Dispatcher) Greeting() Message {
	return Message{Text: d.table.Greeting, Options: slices.Clone(d.table.InitialOptions)}
}

// Suggestions are the chips offered under the chat input.
func (d *Dispatcher) Suggestions() []string {
	return slices.Clone(d.table.InitialOptions)
}

// Respond answers typed text. A known chip label gets its fixed reply, then
// keyword rules are tried in order, then a random stock reply. Typing a chip
// label exactly is the same as clicking that chip, on purpose.
func (d *Dispatcher) Respond(input string) Reply {
	if o, ok := d.table.Option(strings.TrimSpace(input)); ok {
		return optionReply(o)
	}
	lower := strings.ToLower(input)
	for _, rule := range d.table.Keywords {
		if containsAny(lower, rule.Match) {
			return Reply{Text: rule.Reply, Options: slices.Clone(rule.Next)}
		}
	}
	return Reply{Text: d.table.StockReplies[d.rnd.IntN(len(d.table.StockReplies))]}
}

// Select answers a clicked chip. Labels without a reply get the rephrase
// fallback; selection never falls through to keyword matching.
func (d *Dispatcher) Select(option string) Reply {
	if o, ok := d.table.Option(option); ok {
		return optionReply(o)
	}
	return Reply{Text: d.table.UnknownOption}
}

func optionReply(o Option) Reply {
	return Reply{Text: o.Reply, Options: slices.Clone(o.Next)}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
