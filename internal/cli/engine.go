package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/rxflow/internal/catalog"
	"github.com/soyeahso/rxflow/internal/config"
	"github.com/soyeahso/rxflow/internal/conversation"
	"github.com/soyeahso/rxflow/internal/domain"
	"github.com/soyeahso/rxflow/internal/handler"
	"github.com/soyeahso/rxflow/internal/intent"
	"github.com/soyeahso/rxflow/internal/knowledge"
	"github.com/soyeahso/rxflow/internal/llm"
	"github.com/soyeahso/rxflow/internal/logging"
	"github.com/soyeahso/rxflow/internal/orchestrator"
	"github.com/soyeahso/rxflow/internal/store"
)

// engine bundles everything a command needs to process messages.
type engine struct {
	cfg      config.Config
	orch     *orchestrator.Orchestrator
	contexts *conversation.ContextStore
	index    *knowledge.Index
	products *store.ProductStore // nil on the memory backend
	loader   *catalog.Loader     // nil on the memory backend
	db       *store.DB           // nil on the memory backend
}

func (e *engine) close() {
	if e.db != nil {
		e.db.Close()
	}
}

// buildEngine loads config and wires the full message-processing stack.
// extraNotifiers are appended after the built-in log notifier.
func buildEngine(ctx context.Context, log *logging.Logger, extraNotifiers ...orchestrator.Notifier) (*engine, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return nil, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}

	var generator llm.Generator
	var embedder llm.Embedder
	switch cfg.LLM.Provider {
	case "stub":
		stub := llm.NewStub()
		embedder = stub
		log.Info().Msg("using stub LLM provider, classification is rule-based")
	default:
		client := llm.NewOllamaClient(cfg.LLM.Endpoint, cfg.LLM.GenerateModel, cfg.LLM.EmbedModel)
		generator = client
		embedder = client
		log.Info().Str("endpoint", cfg.LLM.Endpoint).Str("model", cfg.LLM.GenerateModel).Msg("using ollama LLM provider")
	}

	e := &engine{cfg: cfg}

	var repo conversation.Repository
	if cfg.Store.Backend == "memory" {
		repo = store.NewMemoryConversationStore()
		log.Info().Msg("using in-memory conversation store")
	} else {
		if err := paths.EnsureDirs(); err != nil {
			return nil, fmt.Errorf("creating data directories: %w", err)
		}
		dbPath := cfg.Store.Path
		if dbPath == "" {
			dbPath = paths.DefaultStorePath()
		}
		db, err := store.Open(dbPath, log)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		e.db = db
		repo = store.NewSQLiteConversationStore(db)
		e.products = store.NewProductStore(db)
		log.Info().Str("path", dbPath).Msg("using SQLite store")
	}

	e.contexts = conversation.NewContextStore(repo, log)
	e.index = knowledge.NewIndex(embedder, cfg.Knowledge.Threshold, log)

	if e.products != nil {
		e.loader = catalog.NewLoader(e.products, e.index, log)
		if err := e.loader.Rebuild(ctx); err != nil {
			log.Warn().Err(err).Msg("catalog index rebuild failed")
		}
	}

	classifier := intent.NewClassifier(generator,
		time.Duration(cfg.LLM.ClassifyTimeout)*time.Second, log)

	notifiers := buildNotifiers(cfg.Escalation, log, extraNotifiers)
	manager := orchestrator.NewEscalationManager(e.contexts, notifiers, log)

	// A typed nil *store.ProductStore must not reach the interface, or the
	// handler's nil check would pass a non-nil interface wrapping nil.
	var lookup handler.ProductLookup
	if e.products != nil {
		lookup = e.products
	}

	catalogH := handler.NewCatalog(e.index)
	orderingH := handler.NewOrdering(lookup)
	handlers := orchestrator.Handlers{
		Conversational: handler.NewConversational(),
		Catalog:        catalogH,
		Ordering:       orderingH,
		Compliance:     handler.NewCompliance(),
		Fulfillment:    handler.NewFulfillment(),
		Payment:        handler.NewPayment(),
		General:        handler.NewGeneral(e.index, log),
		Clarify:        handler.NewClarify(catalogH, orderingH),
	}

	e.orch = orchestrator.New(classifier, e.contexts, handlers, manager, log)
	return e, nil
}

// buildNotifiers assembles the escalation fan-out from config. The "log"
// notifier is built here; "operators" enables any extras the caller passed
// (the websocket hub when serving).
func buildNotifiers(cfg config.EscalationConfig, log *logging.Logger, extras []orchestrator.Notifier) []orchestrator.Notifier {
	enabled := func(name string) bool {
		if len(cfg.Notifiers) == 0 {
			return true
		}
		for _, n := range cfg.Notifiers {
			if n == name {
				return true
			}
		}
		return false
	}

	var notifiers []orchestrator.Notifier
	if enabled("log") {
		escLog := log.Sub("escalation-notify")
		notifiers = append(notifiers, orchestrator.NotifierFunc(func(ctx context.Context, conversationID, reason string, conv *domain.ConversationContext) {
			escLog.Warn().
				Str("conversation", conversationID).
				Str("reason", reason).
				Msg("escalation requires human attention")
		}))
	}
	if enabled("operators") {
		notifiers = append(notifiers, extras...)
	}
	return notifiers
}
