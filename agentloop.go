// Package agentloop provides a high-level façade over the orchestrator and
// the built-in tool families (scene, database, HTTP and browser tools). Most
// applications interact with this package by:
//  1. Loading configuration via config.FromEnv()
//  2. Constructing a completion backend (model/openai or model/anthropic)
//  3. Creating an AgentLoop via New() and calling Chat()
//
// The façade delegates the tool-calling loop to orchestrator.Orchestrator
// while keeping setup concise. All defaults are safe for local development;
// production deployments typically supply a structured logger and their own
// browser factory.
package agentloop

import (
	"context"

	"github.com/pochehq/agentloop/browsertool"
	"github.com/pochehq/agentloop/config"
	"github.com/pochehq/agentloop/core"
	"github.com/pochehq/agentloop/dbtool"
	"github.com/pochehq/agentloop/httptool"
	"github.com/pochehq/agentloop/logging"
	"github.com/pochehq/agentloop/model"
	"github.com/pochehq/agentloop/orchestrator"
	"github.com/pochehq/agentloop/scenetool"
	"github.com/pochehq/agentloop/tool"
)

// Options configures the AgentLoop instance.
type Options struct {
	// SystemPrompt overrides the default assistant preamble.
	SystemPrompt string
	// BrowserFactory creates browser page sessions. Defaults to a lazily
	// launched headless Chrome.
	BrowserFactory browsertool.DriverFactory
	// ExtraTools are registered alongside the built-in tool families.
	ExtraTools []tool.Tool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentLoop is the high-level façade aggregating the orchestrator and the
// built-in toolsets.
type AgentLoop struct {
	orchestrator *orchestrator.Orchestrator
	registry     *tool.Registry
	db           *dbtool.Toolset
}

// New wires the built-in tool families against cfg and returns a ready
// AgentLoop around the given completion backend.
func New(cfg *config.Config, m model.Model, optFns ...func(o *Options)) *AgentLoop {
	opts := Options{
		SystemPrompt: orchestrator.DefaultSystemPrompt,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	browserFactory := opts.BrowserFactory
	var browserCleanup func()
	if browserFactory == nil {
		chrome := browsertool.NewChromeFactory(0)
		browserFactory = chrome.New
		browserCleanup = chrome.Shutdown
	}

	db := dbtool.New(cfg.DatabaseURL, func(o *dbtool.Options) {
		o.Logger = opts.Logger
	})
	api := httptool.New(cfg.APIBaseURL, func(o *httptool.Options) {
		o.Logger = opts.Logger
	})
	browser := browsertool.New(browserFactory, cfg.FrontendURL, func(o *browsertool.Options) {
		o.ScreenshotDir = cfg.ScreenshotDir
		o.Cleanup = browserCleanup
		o.Logger = opts.Logger
	})

	registry := tool.NewRegistry(func(o *tool.RegistryOptions) {
		o.Logger = opts.Logger
	})
	registry.RegisterAll(scenetool.Tools()...)
	registry.RegisterAll(db.Tools()...)
	registry.RegisterAll(api.Tools()...)
	registry.RegisterAll(browser.Tools()...)
	registry.RegisterAll(opts.ExtraTools...)

	executor := tool.NewExecutor(registry, func(o *tool.ExecutorOptions) {
		o.Logger = opts.Logger
	})

	orch := orchestrator.New(m, registry, executor, func(o *orchestrator.Options) {
		o.SystemPrompt = opts.SystemPrompt
		o.MaxTurns = cfg.MaxTurns
		o.Logger = opts.Logger
	})

	return &AgentLoop{orchestrator: orch, registry: registry, db: db}
}

// Chat runs one conversational turn through the tool-calling loop.
func (l *AgentLoop) Chat(ctx context.Context, message string, history []core.Message) (*orchestrator.Result, error) {
	return l.orchestrator.Run(ctx, message, history)
}

// Tools lists every registered tool.
func (l *AgentLoop) Tools() []tool.Tool { return l.registry.All() }

// Close releases pooled resources. Browser sessions are released via the
// browser_cleanup tool or process exit.
func (l *AgentLoop) Close() { l.db.Close() }
