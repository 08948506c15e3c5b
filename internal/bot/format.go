package bot

import (
	"fmt"
	"strings"

	"github.com/mnemolab/recall/internal/cards"
)

const helpText = "*All commands*\n\n" +
	"New deck:\n" +
	"`/newdeck Name`\n\n" +
	"Choose deck:\n" +
	"`/deck Name`\n\n" +
	"List decks:\n" +
	"`/decks`\n\n" +
	"Add card:\n" +
	"`/add Question | Answer`\n\n" +
	"Review cards:\n" +
	"`/review`\n\n" +
	"List cards:\n" +
	"`/cards`\n\n" +
	"Delete card:\n" +
	"`/delete ID`\n\n" +
	"Reminder:\n" +
	"`/reminder Day(s)`\n"

const (
	idColumnWidth    = 3
	frontColumnWidth = 10
	backColumnWidth  = 15
)

// truncate shortens text to width, marking the cut with a trailing ellipsis.
func truncate(text string, width int) string {
	if len(text) > width {
		return text[:width-3] + "..."
	}
	return text
}

func pad(text string, width int) string {
	if len(text) >= width {
		return text
	}
	return text + strings.Repeat(" ", width-len(text))
}

// cardsTable renders the user's cards as a fixed-width code-block table.
func cardsTable(list []cards.Card) string {
	var builder strings.Builder
	builder.WriteString("*Your cards*\n\n")
	builder.WriteString("```\n")
	builder.WriteString(fmt.Sprintf("%s | %s  %s | Review\n",
		pad("ID", idColumnWidth),
		pad("Front", frontColumnWidth),
		pad("Back", backColumnWidth)))
	builder.WriteString(strings.Repeat("-", 60) + "\n")

	for _, card := range list {
		builder.WriteString(fmt.Sprintf("%s | %s  %s | %s\n",
			pad(fmt.Sprintf("%d", card.ID), idColumnWidth),
			pad(truncate(card.Front, frontColumnWidth), frontColumnWidth),
			pad(truncate(card.Back, backColumnWidth), backColumnWidth),
			card.NextReview.Format("2006-01-02")))
	}

	builder.WriteString("```")
	return builder.String()
}
