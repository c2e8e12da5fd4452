package config

import (
	"context"
	"net/url"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagesmith/pkg/cache"
	"github.com/matzehuels/pagesmith/pkg/planner"
	"github.com/matzehuels/pagesmith/pkg/session"
)

// OpenCache opens the configured cache backend.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(c.Cache.Dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// OpenStore opens the configured session store.
func (c *Config) OpenStore(ctx context.Context) (session.Store, error) {
	switch c.Store.Backend {
	case StoreFile:
		fs, err := session.NewFileStore(c.Store.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case StoreMongo:
		ms, err := session.NewMongoStore(ctx, session.MongoOptions{
			URI:        c.Store.Mongo.URI,
			Database:   c.Store.Mongo.Database,
			Collection: c.Store.Mongo.Collection,
		})
		if err != nil {
			return nil, err
		}
		return ms, nil
	default:
		return session.NewMemoryStore(), nil
	}
}

// ServiceKeyer scopes cached plans, copy and predictions to the configured
// planning service, so services sharing one redis cache do not collide.
func (c *Config) ServiceKeyer() cache.Keyer {
	host := c.Service.URL
	if u, err := url.Parse(c.Service.URL); err == nil && u.Host != "" {
		host = u.Host
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), "svc:"+host+":")
}

// Service builds the planning service client. With the openai copy
// provider, copy generation goes to the OpenAI-compatible endpoint while
// plans and predictions still come from the planning service.
func (c *Config) Service(ch cache.Cache, refresh bool, logger *log.Logger) planner.Service {
	client := planner.NewClient(c.Service.URL,
		planner.WithTimeout(c.Service.Timeout.Duration),
		planner.WithCache(ch, c.ServiceKeyer()),
		planner.WithRefresh(refresh),
		planner.WithRetry(c.Service.Attempts, planner.DefaultRetryDelay),
		planner.WithLogger(logger),
	)
	if c.Copy.Provider != CopyOpenAI {
		return client
	}
	writer := planner.NewOpenAICopywriter(planner.OpenAIConfig{
		APIKey:  os.Getenv(c.Copy.APIKeyEnv),
		BaseURL: c.Copy.BaseURL,
		Model:   c.Copy.Model,
		Logger:  logger,
	})
	return planner.Combine(client, writer, client)
}
