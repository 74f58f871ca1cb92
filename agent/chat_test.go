package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/tool"
)

func dateRegistry() *tool.Registry {
	r := tool.NewRegistry()
	tool.RegisterDateTool(r)
	return r
}

func TestChatParsesReplyAndSuggestions(t *testing.T) {
	m := model.NewScriptedModel().EnqueueText(
		`{"response": "Hi! How can I help with your studies?", "suggestions": ["Show my events", "Check my GPA"]}`,
	)
	st := core.NewState(context.Background(), "hello", "u1", "t1")

	reply := NewChat(m, dateRegistry()).Run(st)

	assert.Equal(t, "Hi! How can I help with your studies?", reply.Response)
	assert.Len(t, reply.Suggestions, 2)
	assert.Same(t, reply, st.Chat)
}

func TestChatPlainTextFallback(t *testing.T) {
	m := model.NewScriptedModel().EnqueueText("Sure thing, happy to help.")
	st := core.NewState(context.Background(), "thanks", "u1", "t1")

	reply := NewChat(m, dateRegistry()).Run(st)

	assert.Equal(t, "Sure thing, happy to help.", reply.Response)
	assert.Empty(t, reply.Suggestions)
}

func TestChatCallFailureYieldsApology(t *testing.T) {
	m := model.NewScriptedModel().EnqueueError(errors.New("rate limited"))
	st := core.NewState(context.Background(), "hi", "u1", "t1")

	reply := NewChat(m, dateRegistry()).Run(st)

	assert.NotEmpty(t, reply.Response)
	assert.Error(t, st.Err)
}

func TestChatHistoryWindowIsBounded(t *testing.T) {
	captured := &recordingModel{inner: model.NewScriptedModel().EnqueueText(`{"response": "ok"}`)}
	st := core.NewState(context.Background(), "latest", "u1", "t1")
	for i := 0; i < 10; i++ {
		st.AppendMessage(core.UserText(strings.Repeat("x", i+1)))
	}

	NewChat(captured, dateRegistry()).Run(st)

	require.Len(t, captured.requests, 1)
	// system prompt + capped history window + current user turn
	assert.Len(t, captured.requests[0].Contents, 1+historyWindow+1)
}

// recordingModel captures requests while delegating to an inner model.
type recordingModel struct {
	inner    model.Model
	requests []model.Request
}

func (r *recordingModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	r.requests = append(r.requests, req)
	return r.inner.Generate(ctx, req)
}

func (r *recordingModel) Info() model.Info { return r.inner.Info() }
