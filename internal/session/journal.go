package session

import (
	"context"
	"fmt"
	"strings"
)

const journalLimit = 10

func (e *Engine) journal(ctx context.Context, sess *Session) ([]Outbound, error) {
	entries, err := e.accounts.Journal(ctx, sess.UserID, journalLimit)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(msgJournalHeader)
	if len(entries) == 0 {
		b.WriteString(msgJournalEmpty)
	}
	for _, entry := range entries {
		what := entry.Type
		if entry.Description != nil && *entry.Description != "" {
			what = *entry.Description
		}
		fmt.Fprintf(&b, msgJournalEntry, entry.CreatedAt.Format("02.01 15:04"), entry.Amount, what)
	}
	return []Outbound{{Text: b.String(), Keyboard: MainMenu()}}, nil
}
