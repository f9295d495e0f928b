package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"plagcheck/internal/config"
	"plagcheck/internal/disguise"
	"plagcheck/internal/metrics"
	"plagcheck/internal/orchestrator"
	"plagcheck/internal/search"
)

// Service owns everything one process needs to run analyses.
type Service struct {
	Config       config.Config
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Orchestrator *orchestrator.Orchestrator
	Backends     orchestrator.Backends

	closers []func() error
}

func NewService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(nil),
	}

	cache, err := s.openCache(ctx)
	if err != nil {
		return nil, err
	}
	s.Backends = s.buildBackends(cache)

	oc := orchestrator.DefaultConfig()
	oc.Stagger = cfg.Search.Stagger
	s.Orchestrator = orchestrator.New(s.Backends, oc, logger, s.Metrics)
	return s, nil
}

// openCache picks Redis when configured, else a JSON file cache. A zero
// TTL disables caching.
func (s *Service) openCache(ctx context.Context) (search.Cache, error) {
	cc := s.Config.Cache
	if cc.TTL <= 0 {
		return nil, nil
	}
	if cc.RedisAddr != "" {
		rc := search.NewRedisCache(cc.RedisAddr, cc.RedisPassword, cc.RedisDB, cc.TTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cc.RedisAddr, err)
		}
		s.closers = append(s.closers, rc.Close)
		return rc, nil
	}

	path := cc.Path
	if path == "" {
		path = search.DefaultCachePath()
	}
	fc := search.NewFileCache(path, cc.TTL)
	if err := fc.Load(); err != nil {
		s.Logger.Warn("search cache unreadable, starting empty", zap.String("path", path), zap.Error(err))
	}
	return fc, nil
}

func (s *Service) buildBackends(cache search.Cache) orchestrator.Backends {
	sc := s.Config.Search
	var b orchestrator.Backends

	d := disguise.New(nil, sc.Filler)
	limiter := disguise.NewRateLimiter(sc.MinDelay, sc.MaxDelay, nil)
	proxy := &search.Proxy{Service: s.Config.Proxy.Service, APIKey: s.Config.Proxy.APIKey}

	google := func(v search.Variant) search.Provider {
		g := search.NewGoogle(v, d, limiter, s.Logger)
		g.HL, g.GL = sc.HL, sc.GL
		g.Timeout = sc.Timeout
		g.Client.Timeout = 2 * sc.Timeout
		g.Proxy = proxy
		return s.wrap(g, cache)
	}
	if sc.Web {
		b.Web = google(search.Web)
	}
	if sc.Scholar {
		b.Scholar = google(search.Scholar)
	}

	if sc.News {
		b.Document = append(b.Document, s.wrap(search.NewNews(sc.HL, sc.GL, s.Logger), cache))
	}

	keys := s.Config.APIs
	apiLimiter := search.NewAPILimiter(sc.APIPerSec)
	if keys.DeepSeekKey != "" {
		b.Document = append(b.Document, s.wrap(search.NewDeepSeek(keys.DeepSeekKey, apiLimiter), cache))
	}
	if keys.WowinstonKey != "" {
		b.Document = append(b.Document, s.wrap(search.NewWowinston(keys.WowinstonKey, apiLimiter), cache))
	}
	if keys.DetectingAIKey != "" {
		b.Document = append(b.Document, s.wrap(search.NewDetectingAI(keys.DetectingAIKey, apiLimiter), cache))
	}
	if keys.OpenAIKey != "" {
		b.Document = append(b.Document, s.wrap(search.NewOpenAI(keys.OpenAIKey, apiLimiter), cache))
	}

	if sc.Fallback {
		b.Fallback = search.Keyword{}
	}

	s.Logger.Info("search backends ready",
		zap.Bool("web", b.Web != nil),
		zap.Bool("scholar", b.Scholar != nil),
		zap.Strings("document", providerNames(b.Document)),
		zap.Bool("keyword_fallback", b.Fallback != nil),
		zap.Bool("proxy", proxy.Enabled()),
	)
	return b
}

// wrap puts the breaker inside the cache so cache hits never count
// against a backend.
func (s *Service) wrap(p search.Provider, cache search.Cache) search.Provider {
	br := s.Config.Search.Breaker
	p = search.NewBreaker(p, br.MaxFailures, br.Cooldown, s.Logger)
	if cache != nil {
		p = search.NewCached(p, cache, s.Logger)
	}
	return p
}

func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func providerNames(ps []search.Provider) []string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name())
	}
	return names
}
