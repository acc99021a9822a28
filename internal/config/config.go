package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"text2sql-chat/internal/integrations/backend"
	"text2sql-chat/internal/integrations/paramstore"
)

const (
	defaultListenAddr   = ":8080"
	defaultNoticeBuffer = 32
	baseURLParameter    = "/api_base_url"
)

// Config holds the process settings. Values are read from the environment,
// with the backend base URL optionally coming from SSM Parameter Store.
type Config struct {
	ListenAddr     string
	BaseURL        string
	BaseURLSource  string
	ParamPrefix    string
	BackendTimeout time.Duration
	NoticeBuffer   int
}

// Getenv matches os.Getenv.
type Getenv func(key string) string

// ParamPrefix returns the configured SSM prefix without a trailing slash.
func ParamPrefix(getenv Getenv) string {
	return strings.TrimRight(strings.TrimSpace(getenv("PARAM_PREFIX")), "/")
}

// Load resolves Config. params may be nil when no parameter store is in use;
// it is only consulted when PARAM_PREFIX is set and no base URL came from the
// environment.
func Load(ctx context.Context, getenv Getenv, params paramstore.Lookuper) (Config, error) {
	cfg := Config{
		ListenAddr:   envOr(getenv, "LISTEN_ADDR", defaultListenAddr),
		ParamPrefix:  ParamPrefix(getenv),
		NoticeBuffer: defaultNoticeBuffer,
	}

	if v := strings.TrimSpace(getenv("BACKEND_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("config: BACKEND_TIMEOUT %q is not a valid duration", v)
		}
		cfg.BackendTimeout = d
	}
	if v := strings.TrimSpace(getenv("NOTICE_BUFFER")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: NOTICE_BUFFER %q must be a positive integer", v)
		}
		cfg.NoticeBuffer = n
	}

	baseURL, source, err := resolveBaseURL(ctx, getenv, cfg.ParamPrefix, params)
	if err != nil {
		return Config{}, err
	}
	cfg.BaseURL = baseURL
	cfg.BaseURLSource = source
	return cfg, nil
}

// resolveBaseURL applies env, then SSM, then the hard-coded fallback.
func resolveBaseURL(ctx context.Context, getenv Getenv, prefix string, params paramstore.Lookuper) (string, string, error) {
	for _, key := range []string{"TEXT2SQL_API_BASE_URL", "NEXT_PUBLIC_API_BASE_URL"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v, "env:" + key, nil
		}
	}

	if prefix != "" && params != nil {
		name := prefix + baseURLParameter
		v, found, err := params.Lookup(ctx, name)
		if err != nil {
			return "", "", fmt.Errorf("config: load base url: %w", err)
		}
		if found && v != "" {
			return v, "ssm:" + name, nil
		}
	}

	return backend.DefaultBaseURL, "default", nil
}

func envOr(getenv Getenv, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}
