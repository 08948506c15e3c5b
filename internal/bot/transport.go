// Package bot is the chat boundary: it parses inbound commands and button
// callbacks, drives the deck/card/scheduling services, and renders every
// outcome as a user-visible message. All domain errors are recovered here;
// none escape to the transport.
package bot

import "context"

// Button is one inline choice attached to a message. Data is the opaque tag
// echoed back in a Callback when the button is pressed.
type Button struct {
	Label string
	Data  string
}

// Message is an outbound chat message, optionally with button rows.
type Message struct {
	Text     string
	Markdown bool
	Buttons  [][]Button
}

// Command is an inbound slash command. Text carries the raw argument string
// after the command name; Args is the whitespace-split form.
type Command struct {
	ChatID int64
	UserID int64
	Name   string
	Args   []string
	Text   string
}

// Callback is an inbound button press, tagged with the button's Data and the
// message it was attached to.
type Callback struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Data      string
}

// Transport delivers outbound messages. Send posts a new message; Edit
// replaces the text and buttons of an existing one.
type Transport interface {
	Send(ctx context.Context, chatID int64, message Message) error
	Edit(ctx context.Context, chatID int64, messageID int, message Message) error
}
