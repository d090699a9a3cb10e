package app

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/yungbote/pillars-backend/internal/modules/coach/executor"
	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
	"github.com/yungbote/pillars-backend/internal/platform/openai"
	"github.com/yungbote/pillars-backend/internal/platform/redislock"
)

type Clients struct {
	Generator executor.Generator
	Locker    memory.Locker
	Registry  *personas.Registry

	closers []func() error
}

func (c Clients) Close() {
	for _, fn := range c.closers {
		_ = fn()
	}
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Personas
	registry, err := LoadRegistry(cfg.PersonasDir)
	if err != nil {
		return Clients{}, err
	}
	out.Registry = registry

	// Text generation
	if cfg.OpenAIAPIKey != "" {
		client, err := openai.NewClient(log, openai.Options{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			Timeout:    cfg.GenerationTimeout,
			MaxRetries: 1,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		out.Generator = executor.NewLLMGenerator(client)
	} else {
		log.Warn("OPENAI_API_KEY not set, using template generator")
		out.Generator = executor.TemplateGenerator{}
	}

	// Memory write locks
	if cfg.RedisAddr != "" {
		l, err := redislock.New(log, redislock.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.ServiceName + ":memory:",
		})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis locker: %w", err)
		}
		out.Locker = l
		out.closers = append(out.closers, l.Close)
	} else {
		out.Locker = memory.NewLocalLocker()
	}
	return out, nil
}

// LoadRegistry reads persona contracts from dir, or the built-in set when
// dir is empty.
func LoadRegistry(dir string) (*personas.Registry, error) {
	if dir == "" {
		r, err := personas.Default()
		if err != nil {
			return nil, fmt.Errorf("load built-in personas: %w", err)
		}
		return r, nil
	}
	var fsys fs.FS = os.DirFS(dir)
	r, err := personas.LoadFS(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("load personas from %s: %w", dir, err)
	}
	return r, nil
}
