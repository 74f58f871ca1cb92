package agent

import (
	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/model"
	"github.com/chedhq/ched/structured"
	"github.com/chedhq/ched/tool"
)

// historyWindow is how many recent conversation messages the chat agent sees.
const historyWindow = 5

const chatPrompt = `You are a friendly assistant for a student, handling
general conversation. You can look up today's date with a tool. Keep replies
short and helpful, and suggest up to three relevant follow-ups.

Respond with JSON only:
{"response": "...", "suggestions": ["...", "..."]}`

// Chat is the conversational fallback agent.
type Chat struct {
	model    model.Model
	registry *tool.Registry
	rounds   int
	logger   logging.Logger
}

// ChatOption mutates chat agent construction.
type ChatOption func(*Chat)

// WithChatLogger sets the chat agent's logger.
func WithChatLogger(l logging.Logger) ChatOption {
	return func(c *Chat) { c.logger = l }
}

// NewChat builds the conversational agent. The registry typically carries
// only the date tool.
func NewChat(m model.Model, registry *tool.Registry, opts ...ChatOption) *Chat {
	c := &Chat{model: m, registry: registry, rounds: 3, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the chat loop with a recent-history window and stores the reply
// on the state. Total: failures yield a plain-text fallback.
func (c *Chat) Run(st *core.State) *core.ChatReply {
	contents := []core.Content{core.SystemText(chatPrompt)}

	history := st.Messages
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	contents = append(contents, history...)

	user := st.Query
	if st.Extraction != nil && st.Extraction.Answer != "" {
		user += "\n\nContext from the user's documents:\n" + st.Extraction.Answer
	}
	contents = append(contents, core.UserText(user))

	loop := &toolLoop{model: c.model, registry: c.registry, maxRounds: c.rounds, stream: true, logger: c.logger}
	res, err := loop.run(st, contents)
	if err != nil {
		c.logger.Error("chat.failed", "error", err.Error())
		st.Err = err
		fallback := &core.ChatReply{Response: "Sorry, I couldn't process that right now. Please try again."}
		st.Chat = fallback
		return fallback
	}

	reply, tier := structured.DecodeOr(res.Text, func(raw string) core.ChatReply {
		// the raw text is already the conversational answer
		return core.ChatReply{Response: raw}
	})
	if reply.Response == "" {
		reply.Response = "Could you tell me a bit more about what you need?"
	}
	c.logger.Info("chat.done", "parse_tier", tier.String())
	st.Chat = &reply
	return &reply
}
