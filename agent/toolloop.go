package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/tool"
)

// generate drives one model call to completion, forwarding partial text
// deltas to emit when set, and returns the final content.
func generate(ctx context.Context, m model.Model, req model.Request, emit func(string)) (core.Content, error) {
	respCh, errCh := m.Generate(ctx, req)
	var final core.Content
	got := false
	for resp := range respCh {
		if resp.Partial {
			if emit != nil {
				emit(resp.Content.Text())
			}
			continue
		}
		final = resp.Content
		got = true
	}
	if err := <-errCh; err != nil {
		return core.Content{}, err
	}
	if !got {
		return core.Content{}, fmt.Errorf("model produced no final response")
	}
	return final, nil
}

// toolLoop is the bounded tool-call cycle shared by the tool-using agents.
// Each round invokes the model with the agent's tool set; requested calls
// are executed and fed back as tool results until the model answers in text,
// the round cap is reached, or a round after the first performs zero new
// actions.
//
// Repeat execution of a mutating tool with an identical (name, canonical
// arguments) signature is skipped and reported back as already done.
// Read-only tools are always allowed to re-run.
type toolLoop struct {
	model     model.Model
	registry  *tool.Registry
	maxRounds int
	stream    bool
	logger    logging.Logger
}

// loopResult carries the loop's final text plus a log of performed actions.
type loopResult struct {
	Text    string
	Actions []string
	Rounds  int
}

// run executes the loop over the given conversation contents. The contents
// slice is extended in place with assistant and tool entries as rounds
// proceed. Errors are returned so the owning agent can apply its fallback.
func (l *toolLoop) run(st *core.State, contents []core.Content) (*loopResult, error) {
	logger := l.logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	limiter := core.NewCallLimiter(l.maxRounds + 1)
	executed := map[string]bool{}
	result := &loopResult{}
	lastText := ""

	for round := 0; round < l.maxRounds; round++ {
		result.Rounds = round + 1
		if err := limiter.Increment(); err != nil {
			break
		}

		resp, err := generate(st.Context, l.model, model.Request{
			Contents: contents,
			Tools:    l.registry.Definitions(),
			Stream:   l.stream,
		}, streamEmit(l.stream, st))
		if err != nil {
			return result, err
		}

		calls := resp.FunctionCalls()
		if text := resp.Text(); text != "" {
			lastText = text
		}
		if len(calls) == 0 {
			result.Text = resp.Text()
			return result, nil
		}

		contents = append(contents, resp)
		toolContent := core.Content{Role: core.RoleTool}
		newActions := 0

		for _, call := range calls {
			args := map[string]any{}
			if call.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
					logger.Warn("toolloop.args.unparseable", "tool", call.Name, "error", err.Error())
				}
			}
			callID := call.ID
			if callID == "" {
				callID = uuid.NewString()
			}

			sig := tool.Signature(call.Name, args)
			if l.registry.IsMutating(call.Name) && executed[sig] {
				logger.Debug("toolloop.skip.duplicate", "tool", call.Name)
				toolContent.Parts = append(toolContent.Parts, core.FunctionResponsePart{
					FunctionResponse: core.FunctionResponse{
						ID:       callID,
						Name:     call.Name,
						Response: "Already done. Do not repeat this action.",
					},
				})
				continue
			}

			toolCtx := core.NewToolContext(st.Context, st.UserID, st.ThreadID, callID, logger)
			out, err := l.registry.Execute(toolCtx, call.Name, args)
			if err != nil {
				// fed back as text so the model can react; never aborts the loop
				toolContent.Parts = append(toolContent.Parts, core.FunctionResponsePart{
					FunctionResponse: core.FunctionResponse{
						ID:       callID,
						Name:     call.Name,
						Response: fmt.Sprintf("Error: %v", err),
						Error:    err.Error(),
					},
				})
				continue
			}

			newActions++
			if l.registry.IsMutating(call.Name) {
				executed[sig] = true
				result.Actions = append(result.Actions, fmt.Sprintf("%v", out))
			}
			toolContent.Parts = append(toolContent.Parts, core.FunctionResponsePart{
				FunctionResponse: core.FunctionResponse{
					ID:       callID,
					Name:     call.Name,
					Response: fmt.Sprintf("%v", out),
				},
			})
		}

		contents = append(contents, toolContent)

		// A zero-action first round gets one retry: the tool results (often
		// errors) go back to the model so it can correct itself.
		if newActions == 0 && round > 0 {
			logger.Debug("toolloop.stall", "round", round)
			break
		}
	}

	result.Text = lastText
	return result, nil
}

// streamEmit returns the token forwarder only when streaming is on.
func streamEmit(stream bool, st *core.State) func(string) {
	if !stream {
		return nil
	}
	return st.EmitToken
}
