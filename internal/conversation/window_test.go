package conversation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villa-concierge/concierge-platform/internal/model"
)

func history(turns int) []model.ChatMessage {
	msgs := []model.ChatMessage{model.SystemMessage(Persona)}
	for i := 0; i < turns; i++ {
		msgs = append(msgs, model.UserMessage(fmt.Sprintf("q%d", i)), model.AssistantMessage(fmt.Sprintf("a%d", i)))
	}
	return msgs
}

func TestWindowKeepsSystemAndMostRecent(t *testing.T) {
	msgs := history(8)

	got := NewWindow(4).Apply(msgs)

	require.Len(t, got, 5)
	assert.Equal(t, model.RoleSystem, got[0].Role)
	assert.Equal(t, "q6", got[1].Content)
	assert.Equal(t, "a7", got[4].Content)
	assert.Len(t, msgs, 17, "input untouched")
}

func TestWindowShortHistoryUnchanged(t *testing.T) {
	msgs := history(2)
	assert.Equal(t, msgs, NewWindow(0).Apply(msgs))
	assert.Equal(t, DefaultWindow, NewWindow(-1).Size)
}

func TestWithContextReplacesPreviousContext(t *testing.T) {
	msgs := history(1)

	first := WithContext(msgs, "lingua: en")
	second := WithContext(first, "lingua: fr")

	assert.True(t, strings.HasPrefix(second[0].Content, Persona))
	assert.Contains(t, second[0].Content, "lingua: fr")
	assert.NotContains(t, second[0].Content, "lingua: en")
	assert.Equal(t, Persona, msgs[0].Content, "input untouched")
	assert.Equal(t, Persona, WithContext(second, "")[0].Content)
}
