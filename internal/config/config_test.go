package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"text2sql-chat/internal/integrations/backend"
)

type fakeLookuper struct {
	vals  map[string]string
	err   error
	calls []string
}

func (f *fakeLookuper) Lookup(_ context.Context, name string) (string, bool, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return "", false, f.err
	}
	v, ok := f.vals[name]
	return v, ok, nil
}

func envMap(vals map[string]string) Getenv {
	return func(key string) string { return vals[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), envMap(nil), nil)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, backend.DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, "default", cfg.BaseURLSource)
	require.Zero(t, cfg.BackendTimeout)
	require.Equal(t, 32, cfg.NoticeBuffer)
}

func TestLoad_BaseURLPrecedence(t *testing.T) {
	params := &fakeLookuper{vals: map[string]string{"/text2sql/api_base_url": "https://ssm.example.com/api"}}

	cases := []struct {
		name       string
		env        map[string]string
		wantURL    string
		wantSource string
	}{
		{
			name: "primary env wins",
			env: map[string]string{
				"TEXT2SQL_API_BASE_URL":    "https://primary.example.com/api",
				"NEXT_PUBLIC_API_BASE_URL": "https://legacy.example.com/api",
				"PARAM_PREFIX":             "/text2sql",
			},
			wantURL:    "https://primary.example.com/api",
			wantSource: "env:TEXT2SQL_API_BASE_URL",
		},
		{
			name:       "legacy env before ssm",
			env:        map[string]string{"NEXT_PUBLIC_API_BASE_URL": "https://legacy.example.com/api", "PARAM_PREFIX": "/text2sql"},
			wantURL:    "https://legacy.example.com/api",
			wantSource: "env:NEXT_PUBLIC_API_BASE_URL",
		},
		{
			name:       "ssm when prefix set",
			env:        map[string]string{"PARAM_PREFIX": "/text2sql/"},
			wantURL:    "https://ssm.example.com/api",
			wantSource: "ssm:/text2sql/api_base_url",
		},
		{
			name:       "fallback when parameter missing",
			env:        map[string]string{"PARAM_PREFIX": "/other"},
			wantURL:    backend.DefaultBaseURL,
			wantSource: "default",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(context.Background(), envMap(tc.env), params)
			require.NoError(t, err)
			require.Equal(t, tc.wantURL, cfg.BaseURL)
			require.Equal(t, tc.wantSource, cfg.BaseURLSource)
		})
	}
}

func TestLoad_SkipsParamStoreWithoutPrefix(t *testing.T) {
	params := &fakeLookuper{}
	_, err := Load(context.Background(), envMap(nil), params)
	require.NoError(t, err)
	require.Empty(t, params.calls)
}

func TestLoad_ParamStoreError(t *testing.T) {
	params := &fakeLookuper{err: errors.New("access denied")}
	_, err := Load(context.Background(), envMap(map[string]string{"PARAM_PREFIX": "/text2sql"}), params)
	require.Error(t, err)
	require.ErrorContains(t, err, "access denied")
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(context.Background(), envMap(map[string]string{
		"LISTEN_ADDR":     "127.0.0.1:9000",
		"BACKEND_TIMEOUT": "45s",
		"NOTICE_BUFFER":   "4",
	}), nil)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	require.Equal(t, 45*time.Second, cfg.BackendTimeout)
	require.Equal(t, 4, cfg.NoticeBuffer)
}

func TestLoad_InvalidValues(t *testing.T) {
	for _, env := range []map[string]string{
		{"BACKEND_TIMEOUT": "soon"},
		{"BACKEND_TIMEOUT": "-1s"},
		{"NOTICE_BUFFER": "0"},
		{"NOTICE_BUFFER": "many"},
	} {
		_, err := Load(context.Background(), envMap(env), nil)
		require.Error(t, err, "env=%v", env)
	}
}
