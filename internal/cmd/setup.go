package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/runger/dvpick/internal/config"
	"github.com/runger/dvpick/internal/metadata"
	"github.com/runger/dvpick/internal/webapi"
)

// apiFlags are the connection flags shared by every command that talks
// to the Web API. Flags override config file values.
type apiFlags struct {
	baseURL string
	cookie  string
	bearer  string
	noCache bool
}

// session bundles the wired API stack for one command invocation.
type session struct {
	cfg      *config.Config
	client   *webapi.Client
	resolver *metadata.WebAPIResolver
	cached   *metadata.CachedResolver
	store    *metadata.Store
	base     string
}

// newSession loads config, applies flag overrides and wires the client,
// resolver and optional persistent metadata cache.
func newSession(flags apiFlags) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	base := cfg.API.BaseURL
	if flags.baseURL != "" {
		base = flags.baseURL
		if base[len(base)-1] != '/' {
			base += "/"
		}
	}
	if base == "" {
		return nil, fmt.Errorf("no API base URL: set api.base_url in the config or pass --url")
	}

	cookie := cfg.API.Cookie
	if flags.cookie != "" {
		cookie = flags.cookie
	}
	bearer := cfg.API.BearerToken
	if flags.bearer != "" {
		bearer = flags.bearer
	}

	opts := []webapi.Option{
		webapi.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.API.TimeoutMs) * time.Millisecond,
		}),
	}
	if cookie != "" {
		opts = append(opts, webapi.WithCookie(cookie))
	}
	if bearer != "" {
		opts = append(opts, webapi.WithBearerToken(bearer))
	}
	client := webapi.NewClient(opts...)

	resolver := metadata.NewWebAPIResolver(client, base)

	var store *metadata.Store
	if !cfg.Cache.Disabled && !flags.noCache {
		path := cfg.Cache.Path
		if path == "" {
			path, err = metadata.DefaultStorePath()
			if err != nil {
				path = ""
			}
		}
		if path != "" {
			// Cache failures degrade to uncached resolution.
			store, _ = metadata.OpenStore(path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		}
	}

	return &session{
		cfg:      cfg,
		client:   client,
		resolver: resolver,
		cached:   metadata.NewCachedResolver(resolver, store),
		store:    store,
		base:     base,
	}, nil
}

// Close releases session resources.
func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
}
