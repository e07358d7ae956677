package commands

import (
	"context"
	"log/slog"
	"time"
	"tildes-client/internal/components/chrono"
	"tildes-client/internal/components/telemetry"
	"tildes-client/internal/notifier"
	"tildes-client/internal/scrapers/tildes"
	"tildes-client/lib/configutil"
	"tildes-client/lib/restyutil"
)

type ClientConfig struct {
	BaseUrl               string  `json:"base_url"`
	RequestsPerSecond     float64 `json:"requests_per_second"`
	TimeoutSeconds        int     `json:"timeout_seconds"`
	CloudflareBypass      bool    `json:"cloudflare_bypass"`
	RespectServerCollapse bool    `json:"respect_server_collapse"`
	GroupCacheMinutes     int     `json:"group_cache_minutes"`
	UserAgent             string  `json:"user_agent"`
}

type NotifyConfig struct {
	IntervalMinutes int                 `json:"interval_minutes"`
	Smtp            notifier.SmtpConfig `json:"smtp"`
	// To is empty when notifications should not be e-mailed.
	To []string `json:"to"`
}

type Config struct {
	Username string              `json:"username"`
	Password string              `json:"password"`
	Timezone string              `json:"timezone"`
	Client   ClientConfig        `json:"client"`
	Archive  configutil.Database `json:"archive"`
	Notify   NotifyConfig        `json:"notify"`
}

var defaultConfig = Config{
	Client: ClientConfig{
		BaseUrl:           tildes.DefaultBaseUrl,
		RequestsPerSecond: 1,
		TimeoutSeconds:    30,
		GroupCacheMinutes: 10,
	},
	Archive: configutil.Database{
		File: "archive.db",
	},
	Notify: NotifyConfig{
		IntervalMinutes: 5,
	},
}

func readConfig() Config {
	err := configutil.LoadDotenv(".env")
	if err != nil {
		fatal("failed to load .env", err)
	}
	cfg, err := configutil.ReadConfigWithDefaults(configPath, defaultConfig)
	if err != nil {
		fatal("failed to read config", err)
	}
	cfg.Username = configutil.EnvOverride("TILDES_USERNAME", cfg.Username)
	cfg.Password = configutil.EnvOverride("TILDES_PASSWORD", cfg.Password)
	return cfg
}

func newClock(cfg Config) chrono.API {
	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		fatal("failed to load timezone", err)
	}
	return clock
}

func newClient(cfg Config) *tildes.Client {
	opts := tildes.ClientOptions{
		BaseUrl:               cfg.Client.BaseUrl,
		RespectServerCollapse: cfg.Client.RespectServerCollapse,
		RequestsPerSecond:     cfg.Client.RequestsPerSecond,
		Timeout:               time.Duration(cfg.Client.TimeoutSeconds) * time.Second,
		CloudflareBypass:      cfg.Client.CloudflareBypass,
		GroupCacheTTL:         time.Duration(cfg.Client.GroupCacheMinutes) * time.Minute,
		UserAgent:             cfg.Client.UserAgent,
	}
	if dumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(dumpDir)
		if err != nil {
			fatal("failed to create dump directory", err)
		}
		slog.Info("dumping http exchanges", "dir", output.Dir())
		opts.Dump = output
	}

	client, err := tildes.NewClient(opts, newClock(cfg), telemetry.SlogAPI{})
	if err != nil {
		fatal("failed to create client", err)
	}
	return client
}

// login logs the client in with the configured credentials and returns a
// function that logs it back out.
func login(ctx context.Context, client *tildes.Client, cfg Config, code string) func() {
	if cfg.Username == "" || cfg.Password == "" {
		fatal("a username and password are required (config or TILDES_USERNAME/TILDES_PASSWORD)", nil)
	}

	outcome, err := client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		fatal("failed to login", err)
	}
	if outcome == tildes.LoginNeedsTwoFactor {
		if code == "" {
			fatal("the account requires a two factor code (--code)", nil)
		}
		err = client.LoginTwoFactor(ctx, code)
		if err != nil {
			fatal("failed to verify two factor code", err)
		}
	}
	slog.Debug("logged in", "username", cfg.Username)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := client.Logout(ctx)
		if err != nil {
			slog.Warn("failed to logout", "err", err)
		}
	}
}

// session is what every command works with.
type session struct {
	cfg    Config
	client *tildes.Client
	logout func()
}

// Close logs an authenticated session out, it also runs when the command
// exits through fatal.
func (s session) Close() {
	if s.logout != nil {
		s.logout()
	}
}

func openSession(ctx context.Context, authenticated bool) session {
	cfg := readConfig()
	client := newClient(cfg)
	s := session{cfg: cfg, client: client}
	if authenticated {
		s.logout = onFatal(login(ctx, client, cfg, twoFactorCode))
	}
	return s
}
