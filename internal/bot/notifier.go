package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mnemolab/recall/internal/cards"
	"github.com/mnemolab/recall/internal/reminder"
)

// DueNotifier builds the reminder payload: due counts grouped by deck. The
// chat id doubles as the user id, which holds for private chats. Chats with
// nothing due get no message.
func DueNotifier(cardsService *cards.Service, transport Transport) reminder.Notifier {
	return func(ctx context.Context, chatID int64) error {
		counts, err := cardsService.CountDueByDeck(ctx, chatID)
		if err != nil {
			return err
		}
		if len(counts) == 0 {
			return nil
		}

		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		var builder strings.Builder
		builder.WriteString("*Review reminder*\n\n")
		for _, name := range names {
			builder.WriteString(fmt.Sprintf("`%s`: *%d* cards\n", name, counts[name]))
		}
		builder.WriteString("\nUse /review to start.")

		return transport.Send(ctx, chatID, Message{Text: builder.String(), Markdown: true})
	}
}
