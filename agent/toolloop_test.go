package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/tool"
)

func emptySchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func countingTool(name string, counter *int32, out any, err error) tool.Tool {
	return tool.NewFunctionTool(name, "test tool", emptySchema(),
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			atomic.AddInt32(counter, 1)
			return out, err
		})
}

func TestToolLoopTerminatesOnRepeatedMutatingCall(t *testing.T) {
	var calls int32
	registry := tool.NewRegistry()
	registry.RegisterMutating(countingTool("add_thing", &calls, "Added.", nil))

	// the script repeats its last step forever, simulating a model stuck on
	// the same mutating call
	m := model.NewScriptedModel().EnqueueToolCall("c1", "add_thing", `{}`)

	st := core.NewState(context.Background(), "add the thing", "u1", "t1")
	loop := &toolLoop{model: m, registry: registry, maxRounds: 6}
	res, err := loop.run(st, []core.Content{core.UserText(st.Query)})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls, "mutating call must execute once")
	assert.Equal(t, 2, res.Rounds, "round two sees only a duplicate and stalls")
	assert.Equal(t, []string{"Added."}, res.Actions)
}

func TestToolLoopReExecutesReadOnlyCalls(t *testing.T) {
	var calls int32
	registry := tool.NewRegistry()
	registry.RegisterReadOnly(countingTool("read_thing", &calls, "data", nil))

	m := model.NewScriptedModel().
		EnqueueToolCall("c1", "read_thing", `{}`).
		EnqueueToolCall("c2", "read_thing", `{}`).
		EnqueueText("all done")

	st := core.NewState(context.Background(), "look twice", "u1", "t1")
	loop := &toolLoop{model: m, registry: registry, maxRounds: 6}
	res, err := loop.run(st, []core.Content{core.UserText(st.Query)})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
	assert.Equal(t, "all done", res.Text)
	assert.Empty(t, res.Actions, "read-only calls are not actions")
}

func TestToolLoopDistinctArgumentsAreDistinctActions(t *testing.T) {
	var calls int32
	registry := tool.NewRegistry()
	registry.RegisterMutating(tool.NewFunctionTool("add_thing", "test tool",
		map[string]any{"type": "object", "properties": map[string]any{
			"title": map[string]any{"type": "string"},
		}},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			atomic.AddInt32(&calls, 1)
			return "ok", nil
		}))

	m := model.NewScriptedModel().
		EnqueueToolCall("c1", "add_thing", `{"title": "first"}`).
		EnqueueToolCall("c2", "add_thing", `{"title": "second"}`).
		EnqueueText("done")

	st := core.NewState(context.Background(), "add both", "u1", "t1")
	loop := &toolLoop{model: m, registry: registry, maxRounds: 6}
	res, err := loop.run(st, []core.Content{core.UserText(st.Query)})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
	assert.Len(t, res.Actions, 2)
	assert.Equal(t, "done", res.Text)
}

func TestToolLoopFeedsErrorsBack(t *testing.T) {
	var calls int32
	registry := tool.NewRegistry()
	registry.RegisterMutating(countingTool("flaky", &calls, nil, errors.New("backend unavailable")))

	m := model.NewScriptedModel().
		EnqueueToolCall("c1", "flaky", `{}`).
		EnqueueText("giving up")

	st := core.NewState(context.Background(), "try it", "u1", "t1")
	loop := &toolLoop{model: m, registry: registry, maxRounds: 6}
	res, err := loop.run(st, []core.Content{core.UserText(st.Query)})

	// a failing tool never aborts the loop; the error goes back to the model,
	// which gets another round to react
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls)
	assert.Empty(t, res.Actions)
	assert.GreaterOrEqual(t, m.Calls(), 2, "the model must see the tool failure")
	assert.Equal(t, "giving up", res.Text)
}

func TestToolLoopUnknownToolStalls(t *testing.T) {
	registry := tool.NewRegistry()
	m := model.NewScriptedModel().EnqueueToolCall("c1", "no_such_tool", `{}`)

	st := core.NewState(context.Background(), "?", "u1", "t1")
	loop := &toolLoop{model: m, registry: registry, maxRounds: 6}
	res, err := loop.run(st, []core.Content{core.UserText(st.Query)})

	// the unknown-tool error is retried once, then the loop stalls
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rounds)
}

func TestToolLoopModelErrorPropagates(t *testing.T) {
	registry := tool.NewRegistry()
	m := model.NewScriptedModel().EnqueueError(errors.New("timeout"))

	st := core.NewState(context.Background(), "hello", "u1", "t1")
	loop := &toolLoop{model: m, registry: registry, maxRounds: 3}
	_, err := loop.run(st, []core.Content{core.UserText(st.Query)})

	assert.Error(t, err)
}
