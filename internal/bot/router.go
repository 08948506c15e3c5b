package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mnemolab/recall/internal/cards"
	"github.com/mnemolab/recall/internal/decks"
	"github.com/mnemolab/recall/internal/reminder"
	"github.com/mnemolab/recall/internal/scheduling"
	"github.com/mnemolab/recall/internal/session"
	"go.uber.org/zap"
)

const (
	callbackShow          = "show"
	callbackDeleteConfirm = "delete_confirm"
	callbackDeleteCancel  = "delete_cancel"
	intervalTagPrefix     = "d_"

	genericFailureText = "Something went wrong. Please try again."
	noActiveCardText   = "No active card."
)

var (
	errMissingCards     = errors.New("bot: cards service dependency required")
	errMissingDecks     = errors.New("bot: decks service dependency required")
	errMissingSessions  = errors.New("bot: session store dependency required")
	errMissingReminders = errors.New("bot: reminder scheduler dependency required")
	errMissingTransport = errors.New("bot: transport dependency required")
)

// Dependencies wires the router to the domain services and the transport.
type Dependencies struct {
	Cards     *cards.Service
	Decks     *decks.Service
	Sessions  *session.Store
	Reminders *reminder.Scheduler
	Transport Transport
	Logger    *zap.Logger
}

// Router dispatches inbound chat events to handlers.
type Router struct {
	cards     *cards.Service
	decks     *decks.Service
	sessions  *session.Store
	reminders *reminder.Scheduler
	transport Transport
	logger    *zap.Logger
}

// NewRouter constructs the chat router.
func NewRouter(deps Dependencies) (*Router, error) {
	if deps.Cards == nil {
		return nil, errMissingCards
	}
	if deps.Decks == nil {
		return nil, errMissingDecks
	}
	if deps.Sessions == nil {
		return nil, errMissingSessions
	}
	if deps.Reminders == nil {
		return nil, errMissingReminders
	}
	if deps.Transport == nil {
		return nil, errMissingTransport
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cards:     deps.Cards,
		decks:     deps.Decks,
		sessions:  deps.Sessions,
		reminders: deps.Reminders,
		transport: deps.Transport,
		logger:    logger,
	}, nil
}

// HandleCommand processes one slash command. Session state from a previous
// interaction is cleared up front so a stale active card never leaks into an
// unrelated flow.
func (r *Router) HandleCommand(ctx context.Context, command Command) {
	r.sessions.Clear(command.ChatID)

	var err error
	switch command.Name {
	case "start":
		err = r.handleStart(ctx, command)
	case "newdeck":
		err = r.handleNewDeck(ctx, command)
	case "deck":
		err = r.handleSelectDeck(ctx, command)
	case "decks":
		err = r.handleListDecks(ctx, command)
	case "add":
		err = r.handleAdd(ctx, command)
	case "review":
		err = r.handleReview(ctx, command)
	case "cards":
		err = r.handleListCards(ctx, command)
	case "delete":
		err = r.handleDelete(ctx, command)
	case "reminder":
		err = r.handleReminder(ctx, command)
	default:
		r.logger.Debug("ignoring unknown command", zap.String("command", command.Name))
		return
	}

	if err != nil {
		r.logger.Error("command handling failed",
			zap.String("command", command.Name),
			zap.Int64("chat_id", command.ChatID),
			zap.Error(err))
	}
}

// HandleCallback processes one button press.
func (r *Router) HandleCallback(ctx context.Context, callback Callback) {
	var err error
	switch {
	case callback.Data == callbackShow:
		err = r.handleShowAnswer(ctx, callback)
	case strings.HasPrefix(callback.Data, intervalTagPrefix):
		err = r.handleIntervalChoice(ctx, callback)
	case callback.Data == callbackDeleteConfirm:
		err = r.handleDeleteConfirm(ctx, callback)
	case callback.Data == callbackDeleteCancel:
		err = r.handleDeleteCancel(ctx, callback)
	default:
		r.logger.Debug("ignoring unknown callback", zap.String("data", callback.Data))
		return
	}

	if err != nil {
		r.logger.Error("callback handling failed",
			zap.String("data", callback.Data),
			zap.Int64("chat_id", callback.ChatID),
			zap.Error(err))
	}
}

func (r *Router) handleStart(ctx context.Context, command Command) error {
	return r.send(ctx, command.ChatID, Message{Text: helpText, Markdown: true})
}

func (r *Router) handleNewDeck(ctx context.Context, command Command) error {
	if len(command.Args) < 1 {
		return r.send(ctx, command.ChatID, Message{Text: "Usage: /newdeck <name>"})
	}

	name, err := r.decks.Create(ctx, command.UserID, command.Args[0])
	switch {
	case errors.Is(err, decks.ErrDeckExists):
		return r.send(ctx, command.ChatID, Message{
			Text:     fmt.Sprintf("Deck `%s` already exists.", decks.Normalize(command.Args[0])),
			Markdown: true,
		})
	case errors.Is(err, decks.ErrInvalidName):
		return r.send(ctx, command.ChatID, Message{Text: "Usage: /newdeck <name>"})
	case err != nil:
		return r.sendFailure(ctx, command.ChatID, err)
	}

	return r.send(ctx, command.ChatID, Message{
		Text:     fmt.Sprintf("Deck `%s` created!", name),
		Markdown: true,
	})
}

func (r *Router) handleSelectDeck(ctx context.Context, command Command) error {
	if len(command.Args) < 1 {
		return r.send(ctx, command.ChatID, Message{Text: "Usage: /deck <name>"})
	}

	err := r.decks.Select(ctx, command.UserID, command.Args[0])
	switch {
	case errors.Is(err, decks.ErrDeckNotFound), errors.Is(err, decks.ErrInvalidName):
		return r.send(ctx, command.ChatID, Message{Text: "Deck not found."})
	case err != nil:
		return r.sendFailure(ctx, command.ChatID, err)
	}

	return r.send(ctx, command.ChatID, Message{
		Text:     fmt.Sprintf("Using deck `%s`", decks.Normalize(command.Args[0])),
		Markdown: true,
	})
}

func (r *Router) handleListDecks(ctx context.Context, command Command) error {
	names, err := r.decks.List(ctx, command.UserID)
	if err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}
	if len(names) == 0 {
		return r.send(ctx, command.ChatID, Message{Text: "No decks yet."})
	}

	var builder strings.Builder
	builder.WriteString("*Your decks:*\n\n")
	for _, name := range names {
		builder.WriteString(fmt.Sprintf("`%s`\n", name))
	}
	return r.send(ctx, command.ChatID, Message{Text: builder.String(), Markdown: true})
}

func (r *Router) handleAdd(ctx context.Context, command Command) error {
	front, back, found := strings.Cut(command.Text, "|")
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)
	if !found || front == "" || back == "" {
		return r.send(ctx, command.ChatID, Message{
			Text:     "Usage:\n`/add Question | Answer`",
			Markdown: true,
		})
	}

	deck, err := r.decks.Current(ctx, command.UserID)
	if err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}
	if _, err := r.cards.Add(ctx, command.UserID, deck, front, back); err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}

	return r.send(ctx, command.ChatID, Message{
		Text:     fmt.Sprintf("Card added to deck `%s`", deck),
		Markdown: true,
	})
}

func (r *Router) handleReview(ctx context.Context, command Command) error {
	deck, err := r.decks.Current(ctx, command.UserID)
	if err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}

	card, err := r.cards.Due(ctx, command.UserID, deck)
	if err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}
	if card == nil {
		return r.send(ctx, command.ChatID, Message{
			Text:     fmt.Sprintf("No cards due in `%s`", deck),
			Markdown: true,
		})
	}

	r.sessions.SetActiveCard(command.ChatID, card.ID)
	return r.send(ctx, command.ChatID, Message{
		Text:     fmt.Sprintf("*Question*\n\n%s", card.Front),
		Markdown: true,
		Buttons: [][]Button{
			{{Label: "Show answer", Data: callbackShow}},
		},
	})
}

func (r *Router) handleListCards(ctx context.Context, command Command) error {
	deck, err := r.decks.Current(ctx, command.UserID)
	if err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}

	listed, err := r.cards.List(ctx, command.UserID, deck)
	if err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}
	if len(listed) == 0 {
		return r.send(ctx, command.ChatID, Message{Text: "No cards found."})
	}

	return r.send(ctx, command.ChatID, Message{Text: cardsTable(listed), Markdown: true})
}

func (r *Router) handleDelete(ctx context.Context, command Command) error {
	if len(command.Args) < 1 {
		return r.send(ctx, command.ChatID, Message{
			Text:     "Usage: `/delete <card_id>`",
			Markdown: true,
		})
	}
	cardID, err := strconv.ParseInt(command.Args[0], 10, 64)
	if err != nil {
		return r.send(ctx, command.ChatID, Message{
			Text:     "Usage: `/delete <card_id>`",
			Markdown: true,
		})
	}

	card, err := r.cards.Get(ctx, cardID)
	if err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}
	if card == nil || card.UserID != command.UserID {
		return r.send(ctx, command.ChatID, Message{Text: "Card not found."})
	}

	r.sessions.SetPendingDelete(command.ChatID, cardID)
	return r.send(ctx, command.ChatID, Message{
		Text:     fmt.Sprintf("Delete card %d?\n\n%s", cardID, truncate(card.Front, 60)),
		Markdown: false,
		Buttons: [][]Button{
			{
				{Label: "Delete", Data: callbackDeleteConfirm},
				{Label: "Cancel", Data: callbackDeleteCancel},
			},
		},
	})
}

func (r *Router) handleReminder(ctx context.Context, command Command) error {
	if len(command.Args) < 1 {
		return r.send(ctx, command.ChatID, Message{
			Text:     "Usage:\n`/reminder <days>`\n\nExample:\n`/reminder 3`",
			Markdown: true,
		})
	}

	days, err := strconv.Atoi(command.Args[0])
	if err != nil || days < 1 {
		return r.send(ctx, command.ChatID, Message{Text: "Please enter a valid number of days."})
	}

	if err := r.reminders.Schedule(command.ChatID, days); err != nil {
		return r.sendFailure(ctx, command.ChatID, err)
	}

	return r.send(ctx, command.ChatID, Message{
		Text:     fmt.Sprintf("Reminder updated!\n\nI will remind you every *%d* day(s).", days),
		Markdown: true,
	})
}

func (r *Router) handleShowAnswer(ctx context.Context, callback Callback) error {
	cardID, ok := r.sessions.ActiveCard(callback.ChatID)
	if !ok {
		return r.edit(ctx, callback, Message{Text: noActiveCardText})
	}

	card, err := r.cards.Get(ctx, cardID)
	if err != nil {
		return r.editFailure(ctx, callback, err)
	}
	if card == nil {
		r.sessions.Clear(callback.ChatID)
		return r.edit(ctx, callback, Message{Text: noActiveCardText})
	}

	choices := scheduling.Choices(card.Reviews)
	row := make([]Button, 0, len(choices))
	for _, choice := range choices {
		row = append(row, Button{
			Label: choice.Label,
			Data:  intervalTagPrefix + strconv.FormatFloat(choice.Days, 'g', -1, 64),
		})
	}

	return r.edit(ctx, callback, Message{
		Text: fmt.Sprintf("*Question*\n%s\n\n*Answer*\n%s\n\n*When should I show it again?*",
			card.Front, card.Back),
		Markdown: true,
		Buttons:  [][]Button{row},
	})
}

func (r *Router) handleIntervalChoice(ctx context.Context, callback Callback) error {
	offset, err := strconv.ParseFloat(strings.TrimPrefix(callback.Data, intervalTagPrefix), 64)
	if err != nil || offset < 0 {
		return r.edit(ctx, callback, Message{Text: "That interval choice is not valid."})
	}

	cardID, ok := r.sessions.ActiveCard(callback.ChatID)
	if !ok {
		return r.edit(ctx, callback, Message{Text: noActiveCardText})
	}

	result, err := r.cards.ApplyReview(ctx, cardID, offset)
	switch {
	case errors.Is(err, cards.ErrCardNotFound):
		r.sessions.Clear(callback.ChatID)
		return r.edit(ctx, callback, Message{Text: noActiveCardText})
	case err != nil:
		return r.editFailure(ctx, callback, err)
	}

	// The decision for this card is spent; stale interval buttons must not
	// apply twice.
	r.sessions.Clear(callback.ChatID)

	return r.edit(ctx, callback, Message{
		Text: fmt.Sprintf("Scheduled in *%s*\n%s",
			scheduling.FormatOffset(result.Interval),
			result.NextReview.Format("2006-01-02")),
		Markdown: true,
	})
}

func (r *Router) handleDeleteConfirm(ctx context.Context, callback Callback) error {
	cardID, ok := r.sessions.PendingDelete(callback.ChatID)
	if !ok {
		return r.edit(ctx, callback, Message{Text: "Nothing to delete."})
	}

	err := r.cards.Delete(ctx, cardID, callback.UserID)
	switch {
	case errors.Is(err, cards.ErrCardNotFound):
		r.sessions.Clear(callback.ChatID)
		return r.edit(ctx, callback, Message{Text: "Card not found."})
	case err != nil:
		return r.editFailure(ctx, callback, err)
	}

	r.sessions.Clear(callback.ChatID)
	return r.edit(ctx, callback, Message{Text: fmt.Sprintf("Card deleted (ID %d)", cardID)})
}

func (r *Router) handleDeleteCancel(ctx context.Context, callback Callback) error {
	r.sessions.Clear(callback.ChatID)
	return r.edit(ctx, callback, Message{Text: "Delete canceled."})
}

func (r *Router) send(ctx context.Context, chatID int64, message Message) error {
	return r.transport.Send(ctx, chatID, message)
}

func (r *Router) edit(ctx context.Context, callback Callback, message Message) error {
	return r.transport.Edit(ctx, callback.ChatID, callback.MessageID, message)
}

func (r *Router) sendFailure(ctx context.Context, chatID int64, cause error) error {
	r.logger.Error("domain operation failed", zap.Int64("chat_id", chatID), zap.Error(cause))
	return r.send(ctx, chatID, Message{Text: genericFailureText})
}

func (r *Router) editFailure(ctx context.Context, callback Callback, cause error) error {
	r.logger.Error("domain operation failed", zap.Int64("chat_id", callback.ChatID), zap.Error(cause))
	return r.edit(ctx, callback, Message{Text: genericFailureText})
}
