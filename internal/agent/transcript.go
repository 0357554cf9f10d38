package agent

import "hierarag/internal/ai"

// Turn is one transcript entry. Result holds the typed value a tool returned
// for tool turns; Message.Content carries its JSON form sent to the model.
type Turn struct {
	Message ai.ChatMessage
	Result  any
}

// Transcript is the append-only turn log of one query.
type Transcript struct {
	turns []Turn
}

func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

func (t *Transcript) Len() int { return len(t.turns) }

// Turns returns a copy of the turns in order.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

func (t *Transcript) Last() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// Messages returns the chat messages to send to the model.
func (t *Transcript) Messages() []ai.ChatMessage {
	out := make([]ai.ChatMessage, len(t.turns))
	for i, turn := range t.turns {
		out[i] = turn.Message
	}
	return out
}
