package domain

import (
	"fmt"
	"testing"
)

func TestLastTurns(t *testing.T) {
	t.Run("caps at limit keeping the most recent", func(t *testing.T) {
		var messages []Message
		for i := 0; i < 15; i++ {
			messages = append(messages, Message{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
		}

		turns := LastTurns(messages, HistoryLimit)
		if len(turns) != HistoryLimit {
			t.Fatalf("expected %d turns, got %d", HistoryLimit, len(turns))
		}
		if turns[0].Content != "m5" || turns[len(turns)-1].Content != "m14" {
			t.Errorf("expected the most recent window, got %q..%q",
				turns[0].Content, turns[len(turns)-1].Content)
		}
	})

	t.Run("error bubbles never replay to the backend", func(t *testing.T) {
		messages := []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleError, Content: "something went wrong"},
			{Role: RoleAssistant, Content: "hello"},
		}

		turns := LastTurns(messages, HistoryLimit)
		if len(turns) != 2 {
			t.Fatalf("expected 2 turns, got %d", len(turns))
		}
		for _, turn := range turns {
			if turn.Role == RoleError {
				t.Errorf("error role leaked into history: %+v", turn)
			}
		}
	})
}
