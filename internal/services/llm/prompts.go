package llm

import (
	"fmt"
	"strings"

	"vecna/internal/catalog"
)

const contentSystemPrompt = `You write copy for a board game reference website.
Write in plain, friendly English for players who have not played the game.
Do not invent components, expansions, or rules you are not given.
Respond with JSON only: {"body": "<markdown text>"}.`

var contentInstructions = map[string]string{
	"overview":    "Write a short overview (two or three paragraphs) covering the theme, player count feel, and what makes the game distinctive.",
	"how_to_play": "Write a how-to-play guide: setup, a turn walkthrough, and how the game ends and is scored. Use headings and short lists.",
	"strategy":    "Write beginner strategy tips as a list of five to eight points, each with one sentence of explanation.",
}

// contentPrompt builds the user prompt for one content type.
func contentPrompt(contentType string, game *catalog.Game, parse *catalog.RulebookParse) string {
	instruction, ok := contentInstructions[contentType]
	if !ok {
		instruction = fmt.Sprintf("Write the %q section for this game's page.", strings.ReplaceAll(contentType, "_", " "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s\n", game.Name)
	if game.BGGID > 0 {
		fmt.Fprintf(&b, "BoardGameGeek ID: %d\n", game.BGGID)
	}
	if parse != nil {
		fmt.Fprintf(&b, "Rulebook: %d pages, complexity %.1f of 5\n", parse.PageCount, parse.Complexity)
	} else {
		b.WriteString("Rulebook: not available; rely on widely known information only\n")
	}
	b.WriteString("\n")
	b.WriteString(instruction)
	return b.String()
}
