package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"adventune/folio/config"
	"adventune/folio/diffusion"
	"adventune/folio/events"
	"adventune/folio/format"
	"adventune/folio/highlight"
	"adventune/folio/popup"
	"adventune/folio/post"
	"adventune/folio/repository"
	"adventune/folio/router"
	"adventune/folio/server"
	"adventune/folio/source"
)

// newSource reads posts from base_url when set, else from the content
// directory.
func newSource(cfg *config.Config) source.Source {
	if cfg.BaseURL != "" {
		log.Debug().Str("url", cfg.BaseURL).Msg("Reading posts over HTTP")
		return source.NewHTTPSource(cfg.BaseURL)
	}
	log.Debug().Str("path", cfg.ContentDir).Msg("Reading posts from directory")
	return source.NewDirSource(cfg.ContentDir)
}

func repositoryFactory(cfg *config.Config) func() *repository.Repository {
	return func() *repository.Repository {
		opts := []repository.Option{
			repository.WithFallbackID(cfg.FallbackPost),
			repository.WithConcurrency(cfg.MaxConcurrency),
		}
		if cfg.FrontMatter == "structured" {
			opts = append(opts, repository.WithParser(post.ParseStructured))
		}
		return repository.New(newSource(cfg), opts...)
	}
}

func newPages(cfg *config.Config) (*router.Pages, error) {
	f, ok := format.Named(cfg.Formatter)
	if !ok {
		return nil, fmt.Errorf("unknown formatter %q", cfg.Formatter)
	}
	return &router.Pages{
		Formatter:      f,
		AssetRoot:      cfg.AssetRoot,
		ImageFormat:    cfg.ImageFormat,
		FallbackFormat: cfg.ImageFallbackFormat,
	}, nil
}

func readShell(cfg *config.Config) (string, error) {
	if cfg.Shell == "" {
		return server.DefaultShell, nil
	}
	data, err := os.ReadFile(cfg.Shell)
	if err != nil {
		return "", fmt.Errorf("reading shell %s: %w", cfg.Shell, err)
	}
	return string(data), nil
}

func newHighlighter(cfg *config.Config) *highlight.Highlighter {
	if !cfg.Highlight {
		return nil
	}
	return highlight.New(cfg.HighlightStyle)
}

// subscribeCollaborators attaches the markup passes a live page runs after
// every transition.
func subscribeCollaborators(bus *events.Bus, cfg *config.Config) {
	if h := newHighlighter(cfg); h != nil {
		bus.Subscribe(h)
	}
	bus.Subscribe(popup.NewBinder(cfg.AssetRoot, cfg.ImageFormat, cfg.ImageFallbackFormat))
	bus.Subscribe(diffusion.NewAnimator())
}
