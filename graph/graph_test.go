package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chedhq/ched/core"
)

func TestGraphRunFollowsEdges(t *testing.T) {
	var visited []string
	record := func(name string) NodeFunc {
		return func(st *core.State) error {
			visited = append(visited, name)
			return nil
		}
	}

	g := New().
		AddNode("a", record("a")).
		AddNode("b", record("b")).
		AddEdge("a", "b").
		AddEdge("b", End).
		SetEntry("a")

	st := core.NewState(context.Background(), "q", "u1", "t1")
	require.NoError(t, g.Run(st))
	assert.Equal(t, []string{"a", "b"}, visited)
}

func TestGraphConditionalBranch(t *testing.T) {
	var visited []string
	record := func(name string) NodeFunc {
		return func(st *core.State) error {
			visited = append(visited, name)
			return nil
		}
	}

	g := New().
		AddNode("router", record("router")).
		AddNode("left", record("left")).
		AddNode("right", record("right")).
		AddConditional("router", func(st *core.State) string {
			if st.Query == "go left" {
				return "left"
			}
			return "right"
		}).
		AddEdge("left", End).
		AddEdge("right", End).
		SetEntry("router")

	st := core.NewState(context.Background(), "go left", "u1", "t1")
	require.NoError(t, g.Run(st))
	assert.Equal(t, []string{"router", "left"}, visited)
}

func TestGraphEmptyRouteEnds(t *testing.T) {
	ran := false
	g := New().
		AddNode("only", func(st *core.State) error { ran = true; return nil }).
		AddConditional("only", func(st *core.State) string { return "" }).
		SetEntry("only")

	require.NoError(t, g.Run(core.NewState(context.Background(), "q", "u", "t")))
	assert.True(t, ran)
}

func TestGraphNodeErrorAborts(t *testing.T) {
	g := New().
		AddNode("boom", func(st *core.State) error { return errors.New("kaput") }).
		SetEntry("boom")

	err := g.Run(core.NewState(context.Background(), "q", "u", "t"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestGraphStepCap(t *testing.T) {
	g := New(WithMaxSteps(4)).
		AddNode("loop", func(st *core.State) error { return nil }).
		AddEdge("loop", "loop").
		SetEntry("loop")

	err := g.Run(core.NewState(context.Background(), "q", "u", "t"))
	assert.Error(t, err)
}

func TestGraphMissingEntryAndUnknownNode(t *testing.T) {
	assert.Error(t, New().Run(core.NewState(context.Background(), "q", "u", "t")))

	g := New().
		AddNode("a", func(st *core.State) error { return nil }).
		AddEdge("a", "ghost").
		SetEntry("a")
	assert.Error(t, g.Run(core.NewState(context.Background(), "q", "u", "t")))
}
