package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSetBackendAvailable(t *testing.T) {
	SetBackendAvailable("redis", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(BackendAvailable.WithLabelValues("redis")))

	SetBackendAvailable("redis", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(BackendAvailable.WithLabelValues("redis")))
}

func TestRecordChat(t *testing.T) {
	before := testutil.ToFloat64(ChatMessagesTotal.WithLabelValues("simple_greeting", "greeting"))
	RecordChat("simple_greeting", "greeting", "it")
	RecordChat("simple_greeting", "greeting", "it")

	assert.Equal(t, before+2, testutil.ToFloat64(ChatMessagesTotal.WithLabelValues("simple_greeting", "greeting")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(ChatLanguagesTotal.WithLabelValues("it")), 2.0)
}

func TestRecordCompletionCountsTokens(t *testing.T) {
	in := testutil.ToFloat64(LLMTokensTotal.WithLabelValues("stub-model", "in"))
	out := testutil.ToFloat64(LLMTokensTotal.WithLabelValues("stub-model", "out"))

	RecordCompletion("stub-model", "success", 0.2, 120, 40)

	assert.Equal(t, in+120, testutil.ToFloat64(LLMTokensTotal.WithLabelValues("stub-model", "in")))
	assert.Equal(t, out+40, testutil.ToFloat64(LLMTokensTotal.WithLabelValues("stub-model", "out")))
}
