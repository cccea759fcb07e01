package conversation

import "github.com/villa-concierge/concierge-platform/internal/model"

// DefaultWindow is the number of non-system messages sent to the model.
const DefaultWindow = 10

// Window bounds a history to its system message plus the most recent Size
// messages. The stored conversation is left untouched.
type Window struct {
	Size int
}

// NewWindow returns a window of size n, or DefaultWindow when n is not positive.
func NewWindow(n int) Window {
	if n <= 0 {
		n = DefaultWindow
	}
	return Window{Size: n}
}

// Apply returns the bounded view of msgs. A leading system message is always kept.
func (w Window) Apply(msgs []model.ChatMessage) []model.ChatMessage {
	if len(msgs) == 0 {
		return nil
	}
	var head []model.ChatMessage
	rest := msgs
	if msgs[0].Role == model.RoleSystem {
		head = msgs[:1]
		rest = msgs[1:]
	}
	if len(rest) > w.Size {
		rest = rest[len(rest)-w.Size:]
	}
	out := make([]model.ChatMessage, 0, len(head)+len(rest))
	out = append(out, head...)
	return append(out, rest...)
}
