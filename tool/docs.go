package tool

import (
	"fmt"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/retrieval"
)

type retrieveArgs struct {
	Query string `json:"query" description:"What to look for in the user's documents"`
	TopK  int64  `json:"top_k,omitempty" description:"Maximum snippets to return (default 5)"`
}

// RegisterDocTools binds the document search capability onto the registry.
// The caller's user id is the retrieval namespace.
func RegisterDocTools(r *Registry, index *retrieval.Index) {
	r.RegisterReadOnly(NewFunctionToolFromStruct(
		"retrieve_from_docs",
		"Search the user's previously uploaded documents for relevant passages",
		retrieveArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			k, ok := argInt64(args, "top_k")
			if !ok || k <= 0 {
				k = 5
			}
			snippets := index.Retrieve(argString(args, "query"), tc.UserID(), int(k))
			if len(snippets) == 0 {
				return "No relevant passages found in uploaded documents.", nil
			}
			out := fmt.Sprintf("%d relevant passage(s):\n", len(snippets))
			for _, s := range snippets {
				out += fmt.Sprintf("[%s, score %.2f] %s\n", s.Source, s.Score, s.Content)
			}
			return out, nil
		},
	))
}
