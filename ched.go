// Package ched provides a high-level façade assembling the conversational
// academic scheduling assistant: persistence, retrieval, the agent roles,
// the orchestration graph, the runner and the HTTP server. Most applications
// interact with this package by:
//  1. Loading a config.Config (file + environment)
//  2. Creating an App via New()
//  3. Serving HTTP via App.Serve() or driving queries via App.Runner()
package ched

import (
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/chedhq/ched/agent"
	"github.com/chedhq/ched/config"
	"github.com/chedhq/ched/graph"
	"github.com/chedhq/ched/logging"
	"github.com/chedhq/ched/model"
	anthropicmodel "github.com/chedhq/ched/model/anthropic"
	openaimodel "github.com/chedhq/ched/model/openai"
	"github.com/chedhq/ched/retrieval"
	"github.com/chedhq/ched/runner"
	"github.com/chedhq/ched/server"
	"github.com/chedhq/ched/store"
	"github.com/chedhq/ched/tool"
)

// App bundles the assembled system.
type App struct {
	cfg    *config.Config
	logger logging.Logger
	store  *store.Store
	index  *retrieval.Index
	runner *runner.Runner
	server *server.Server
}

// New assembles the full application from configuration.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger := buildLogger(cfg.Log)

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}
	if err := st.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	if err := st.SeedCoursesFromJSON(cfg.Store.CatalogPath); err != nil {
		return nil, err
	}

	index := retrieval.NewIndex(retrieval.WithLogger(logger))

	m, err := buildModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	run := runner.New(
		buildPipeline(m, st, index, logger),
		st.Chats(),
		func(o *runner.Options) { o.Logger = logger },
	)

	srv := server.New(server.Config{
		APIKey:      cfg.Server.APIKey,
		UploadDir:   cfg.Server.UploadDir,
		ReleaseMode: cfg.Server.Release,
	}, run, st, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		store:  st,
		index:  index,
		runner: run,
		server: srv,
	}, nil
}

// buildPipeline wires the agent roles with their capability registries into
// the orchestration graph.
func buildPipeline(m model.Model, st *store.Store, index *retrieval.Index, logger logging.Logger) *graph.Graph {
	calendarReg := tool.NewRegistry()
	tool.RegisterCalendarTools(calendarReg, st.Events())

	docsReg := tool.NewRegistry()
	tool.RegisterDateTool(docsReg)
	tool.RegisterDocTools(docsReg, index)

	courseReg := tool.NewRegistry()
	tool.RegisterDateTool(courseReg)
	tool.RegisterCourseTools(courseReg, st.Academic())

	chatReg := tool.NewRegistry()
	tool.RegisterDateTool(chatReg)

	return graph.NewPipeline(graph.Deps{
		Router:    agent.NewRouter(m, agent.WithRouterLogger(logger)),
		Extractor: agent.NewExtractor(m, index, docsReg, agent.WithExtractorLogger(logger)),
		Scheduler: agent.NewScheduler(m, calendarReg, agent.WithSchedulerLogger(logger)),
		Verifier:  agent.NewVerifier(m, agent.WithVerifierLogger(logger)),
		Academic:  agent.NewAcademic(m, courseReg, agent.WithAcademicLogger(logger)),
		Chat:      agent.NewChat(m, chatReg, agent.WithChatLogger(logger)),
		Events:    st.Events(),
		Logger:    logger,
	})
}

// buildModel picks the provider from configuration.
func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai", "":
		var clientOpts []option.RequestOption
		if cfg.APIKey != "" {
			clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
		}
		client := openaisdk.NewClient(clientOpts...)
		return openaimodel.NewModelFromClient(&client, func(o *openaimodel.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
		}), nil
	case "anthropic":
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			if cfg.Name != "" {
				o.Model = anthropic.Model(cfg.Name)
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			o.APIKey = cfg.APIKey
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// buildLogger picks the logging backend from configuration.
func buildLogger(cfg config.LogConfig) logging.Logger {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Format == "zerolog" {
		zl, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			zl = zerolog.InfoLevel
		}
		return logging.NewZerologAdapter(
			zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zl),
		)
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Format,
		Output: os.Stdout,
	})
}

// Runner exposes the query runner for embedding without HTTP.
func (a *App) Runner() *runner.Runner { return a.runner }

// Index exposes the retrieval index.
func (a *App) Index() *retrieval.Index { return a.index }

// Serve runs the HTTP server on the configured address until it fails.
func (a *App) Serve() error {
	return a.server.Run(a.cfg.Server.Addr)
}

// Close releases held resources.
func (a *App) Close() error {
	return a.store.Close()
}
