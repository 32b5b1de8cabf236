// Package notify formats notifications and implements the outbound
// webhook delivery collaborator.
package notify

import (
	"fmt"
	"strings"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// Render formats an item as a chat notification. Compact form is a
// single line; expanded form (thread mode) includes the item body on
// its own lines.
func Render(item model.Item, expanded bool) string {
	if !expanded {
		return renderCompact(item)
	}

	var b strings.Builder
	b.WriteString(item.Title)
	if item.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(item.Body)
	}
	b.WriteString("\n\n")
	b.WriteString(originLine(item))
	if item.URL != "" {
		b.WriteString("\n")
		b.WriteString(item.URL)
	}
	return b.String()
}

func renderCompact(item model.Item) string {
	if item.Kind == model.KindReddit {
		return fmt.Sprintf("New post in r/%s (%s) by u/%s: %s (%s)",
			item.Origin, flairOrDefault(item.Category), item.Author, item.Title, item.URL)
	}
	return fmt.Sprintf("New item from %s: %s (%s)", item.Origin, item.Title, item.URL)
}

func originLine(item model.Item) string {
	if item.Kind == model.KindReddit {
		return fmt.Sprintf("r/%s (%s) by u/%s", item.Origin, flairOrDefault(item.Category), item.Author)
	}
	if item.Author != "" {
		return fmt.Sprintf("%s by %s", item.Origin, item.Author)
	}
	return item.Origin
}

func flairOrDefault(flair string) string {
	if flair == "" {
		return "No Flair"
	}
	return flair
}
