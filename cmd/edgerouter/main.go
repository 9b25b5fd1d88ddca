package main

import (
	"context"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bihari123/reelpick/config"
	"github.com/bihari123/reelpick/logger"
)

type routerConfig struct {
	Listen             string           `yaml:"listen"`
	Upstreams          []string         `yaml:"upstreams"`
	HealthIntervalSecs int              `yaml:"health_interval_secs"`
	HealthTimeoutSecs  int              `yaml:"health_timeout_secs"`
	FailThreshold      int              `yaml:"fail_threshold"`
	RiseThreshold      int              `yaml:"rise_threshold"`
	RequestTimeoutSecs int              `yaml:"request_timeout_secs"`
	Log                config.LogConfig `yaml:"log"`
}

func loadRouterConfig(path string) (*routerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg routerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.HealthIntervalSecs == 0 {
		cfg.HealthIntervalSecs = 5
	}
	if cfg.HealthTimeoutSecs == 0 {
		cfg.HealthTimeoutSecs = 3
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	if cfg.RiseThreshold == 0 {
		cfg.RiseThreshold = 2
	}
	if cfg.RequestTimeoutSecs == 0 {
		// Must be enough to carry the largest chunk.
		cfg.RequestTimeoutSecs = 60
	}
	return &cfg, nil
}

func main() {
	path := "edgerouter.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := loadRouterConfig(path)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := logger.Init(&cfg.Log); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer logger.Sync()

	p, err := newPool(cfg.Upstreams)
	if err != nil {
		logger.L().Fatalw("upstream pool", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.runHealthChecks(ctx, healthCheckerConfig{
		interval:      time.Duration(cfg.HealthIntervalSecs) * time.Second,
		timeout:       time.Duration(cfg.HealthTimeoutSecs) * time.Second,
		failThreshold: cfg.FailThreshold,
		riseThreshold: cfg.RiseThreshold,
	})

	handler := newProxyHandler(p, time.Duration(cfg.RequestTimeoutSecs)*time.Second)

	logger.L().Infow("edge router listening", "addr", cfg.Listen, "upstreams", len(cfg.Upstreams))
	server := &http.Server{Addr: cfg.Listen, Handler: handler}
	if err := server.ListenAndServe(); err != nil {
		logger.L().Fatalw("edge router stopped", "err", err)
	}
}

func newProxyHandler(p *pool, requestTimeout time.Duration) http.Handler {
	proxies := make(map[*upstream]*httputil.ReverseProxy, len(p.upstreams))
	for _, up := range p.upstreams {
		target := up.target
		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			logger.L().Warnw("upstream request failed", "upstream", target.Host, "path", r.URL.Path, "err", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"status":"error","error":"BadGateway","code":502}`))
		}
		proxies[up] = proxy
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := p.pick()
		if up == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"error","error":"NoHealthyUpstream","code":503}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()
		proxies[up].ServeHTTP(w, r.WithContext(ctx))
	})
}
