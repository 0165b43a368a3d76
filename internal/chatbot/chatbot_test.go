package chatbot

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	programOptions    = []string{"School Programs", "Mental Health Education", "Community Workshops", "Professional Development"}
	specialistOptions = []string{"Mental Health", "Emotional Wellness", "Social Health"}
)

const (
	programsReply       = "We offer several programs including School Programs, Mental Health Education, Community Workshops, and Professional Development. Which one would you like to learn more about?"
	specialistChipReply = "I'd be happy to connect you with one of our specialists. Could you please tell me what area you're interested in (mental health, emotional wellness, or social health)?"
	specialistTextReply = "I'd be happy to connect you with one of our specialists. Could you please tell me what area you're interested in?"
	contactReply        = "You can reach us through our contact form, or by email at hello@confidante.com. Would you like me to guide you to our contact section?"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	table, err := DefaultTable()
	require.NoError(t, err)
	return NewDispatcher(table, rand.New(rand.NewPCG(1, 2)))
}

func TestDefaultTable(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)

	assert.Len(t, table.StockReplies, 5)
	assert.Equal(t, []string{"Learn about our programs", "Talk to a specialist", "How does Confidante work?", "Schedule a consultation"}, table.InitialOptions)
	for _, label := range table.InitialOptions {
		_, ok := table.Option(label)
		assert.True(t, ok, "initial chip %q has a reply", label)
	}
}

func TestRespondKeywords(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		input   string
		text    string
		options []string
	}{
		{"Tell me about your programs", programsReply, programOptions},
		{"What SERVICES do you have?", programsReply, programOptions},
		{"Can I speak with an expert?", specialistTextReply, specialistOptions},
		{"I want to talk to someone", specialistTextReply, specialistOptions},
		{"How do I contact you?", contactReply, nil},
		{"can I call?", contactReply, nil},
		// priority: program wins over specialist and contact
		{"email a specialist about programs", programsReply, programOptions},
		// specialist wins over contact
		{"email a specialist", specialistTextReply, specialistOptions},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r := d.Respond(tt.input)
			assert.Equal(t, tt.text, r.Text)
			assert.Equal(t, tt.options, r.Options)
		})
	}
}

func TestRespondChipLabelIsDeterministic(t *testing.T) {
	d := newTestDispatcher(t)
	for i := 0; i < 20; i++ {
		r := d.Respond("Talk to a specialist")
		assert.Equal(t, specialistChipReply, r.Text)
		assert.Equal(t, specialistOptions, r.Options)

		s := d.Select("Talk to a specialist")
		assert.Equal(t, r, s)
	}
}

func TestRespondFallsBackToStockReply(t *testing.T) {
	d := newTestDispatcher(t)
	table, _ := DefaultTable()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		r := d.Respond("xyz")
		assert.Contains(t, table.StockReplies, r.Text)
		assert.Nil(t, r.Options)
		seen[r.Text] = true
	}
	assert.Greater(t, len(seen), 1, "stock replies are drawn at random")
}

type fixedRand int

func (f fixedRand) IntN(int) int { return int(f) }

func TestRespondUsesInjectedRandom(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	d := NewDispatcher(table, fixedRand(3))
	assert.Equal(t, table.StockReplies[3], d.Respond("xyz").Text)
}

func TestSelect(t *testing.T) {
	d := newTestDispatcher(t)

	r := d.Select("Learn about our programs")
	assert.Equal(t, programsReply, r.Text)
	assert.Equal(t, programOptions, r.Options)

	r = d.Select("How does Confidante work?")
	assert.Contains(t, r.Text, "holistic health education")
	assert.Nil(t, r.Options)

	r = d.Select("School Programs")
	assert.Equal(t, "I'm not sure I understand. Could you please rephrase your question?", r.Text)
	assert.Nil(t, r.Options)
}

func TestReplyOptionsAreCopies(t *testing.T) {
	d := newTestDispatcher(t)
	r := d.Select("Learn about our programs")
	r.Options[0] = "mutated"
	assert.Equal(t, programOptions, d.Select("Learn about our programs").Options)
}

func TestConversationTranscript(t *testing.T) {
	d := newTestDispatcher(t)
	var tr Transcript
	tr.Append(d.Greeting())
	conv := NewConversation(d, &tr, Delays{})

	r, err := conv.Send(context.Background(), "Tell me about your programs")
	require.NoError(t, err)
	assert.Equal(t, programsReply, r.Text)

	_, err = conv.Choose(context.Background(), "Talk to a specialist")
	require.NoError(t, err)

	msgs := tr.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, Message{Text: "Hello! I'm Confidante's wellness assistant. How can I help you today?", Options: d.Suggestions()}, msgs[0])
	assert.Equal(t, Message{Text: "Tell me about your programs", IsUser: true}, msgs[1])
	assert.Equal(t, Message{Text: programsReply, Options: programOptions}, msgs[2])
	assert.Equal(t, Message{Text: "Talk to a specialist", IsUser: true}, msgs[3])
	assert.Equal(t, Message{Text: specialistChipReply, Options: specialistOptions}, msgs[4])
}

func TestConversationRejectsEmptyInput(t *testing.T) {
	var tr Transcript
	conv := NewConversation(newTestDispatcher(t), &tr, Delays{})

	_, err := conv.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = conv.Choose(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, tr.Len())
}

func TestConversationDelay(t *testing.T) {
	var tr Transcript
	conv := NewConversation(newTestDispatcher(t), &tr, Delays{Reply: 30 * time.Millisecond})

	start := time.Now()
	_, err := conv.Send(context.Background(), "hello")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestConversationCancelledDelayStillReplies(t *testing.T) {
	var tr Transcript
	conv := NewConversation(newTestDispatcher(t), &tr, Delays{Reply: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := conv.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Len())
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "responses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
greeting: "Hi"
initial_options: ["A"]
options:
  - label: "A"
    reply: "You picked A"
keywords:
  - name: help
    match: ["HELP"]
    reply: "Helping"
stock_replies: ["Hmm"]
unknown_option: "Pardon?"
`), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	d := NewDispatcher(table, nil)

	assert.Equal(t, "You picked A", d.Select("A").Text)
	assert.Equal(t, "Helping", d.Respond("please help").Text, "match terms are lowercased")
	assert.Equal(t, "Hmm", d.Respond("nothing").Text)
	assert.Equal(t, "Pardon?", d.Select("B").Text)
}

func TestParseTableErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":        "greeting: [",
		"no stock":        "unknown_option: x\n",
		"no unknown":      "stock_replies: [a]\n",
		"duplicate label": "stock_replies: [a]\nunknown_option: x\noptions:\n  - {label: A, reply: r}\n  - {label: A, reply: r}\n",
		"empty keyword":   "stock_replies: [a]\nunknown_option: x\nkeywords:\n  - {name: k, reply: r}\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable([]byte(src))
			assert.ErrorIs(t, err, ErrInvalidTable)
		})
	}
}
