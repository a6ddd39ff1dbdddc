package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/giantswarm/svcsup"
)

// serviceEntry is one service definition in the config file.
type serviceEntry struct {
	Exec         string            `mapstructure:"exec"`
	Args         []string          `mapstructure:"args"`
	Overlays     []string          `mapstructure:"overlays"`
	Env          map[string]string `mapstructure:"env"`
	PIDFile      string            `mapstructure:"pidfile"`
	ReadyAddr    string            `mapstructure:"ready_addr"`
	ReadyTimeout time.Duration     `mapstructure:"ready_timeout"`
	Debug        bool              `mapstructure:"debug"`
}

// cliConfig is the full config file schema.
type cliConfig struct {
	Registry      string                  `mapstructure:"registry"`
	RunDir        string                  `mapstructure:"run_dir"`
	ReadyTimeout  time.Duration           `mapstructure:"ready_timeout"`
	ReadyInterval time.Duration           `mapstructure:"ready_interval"`
	StopTimeout   time.Duration           `mapstructure:"stop_timeout"`
	HostPrep      bool                    `mapstructure:"host_prep"`
	Tmux          string                  `mapstructure:"tmux"`
	Services      map[string]serviceEntry `mapstructure:"services"`
}

// loadConfig reads the config file. An explicit path is required to
// exist; otherwise svcsup.yaml is searched in the current directory and
// /etc/svcsup, and a missing file yields the zero config so the CLI can
// still run with flags and environment only. Every key can be overridden
// through SVCSUP_* environment variables.
func loadConfig(path string) (cliConfig, string, error) {
	v := viper.New()
	v.SetEnvPrefix("svcsup")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("svcsup")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/svcsup")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return cliConfig{}, "", fmt.Errorf("read config: %w", err)
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, "", fmt.Errorf("parse config: %w", err)
	}
	return cfg, v.ConfigFileUsed(), nil
}

// supervisorOptions maps the config file onto supervisor options.
func (c cliConfig) supervisorOptions() []svcsup.Option {
	var opts []svcsup.Option
	if c.Registry != "" {
		opts = append(opts, svcsup.WithRegistryPath(c.Registry))
	}
	if c.RunDir != "" {
		opts = append(opts, svcsup.WithRunDir(c.RunDir))
	}
	if c.ReadyTimeout > 0 {
		opts = append(opts, svcsup.WithReadyTimeout(c.ReadyTimeout))
	}
	if c.ReadyInterval > 0 {
		opts = append(opts, svcsup.WithReadyInterval(c.ReadyInterval))
	}
	if c.StopTimeout > 0 {
		opts = append(opts, svcsup.WithStopTimeout(c.StopTimeout))
	}
	if c.HostPrep {
		opts = append(opts, svcsup.WithHostPreparation())
	}
	if c.Tmux != "" {
		opts = append(opts, svcsup.WithTmuxBinary(c.Tmux))
	}
	return opts
}

// service resolves one named service definition into a ServiceConfig.
// The debug argument forces a debug launch regardless of the config file.
func (c cliConfig) service(name string, debug bool) (svcsup.ServiceConfig, error) {
	entry, ok := c.Services[name]
	if !ok {
		known := make([]string, 0, len(c.Services))
		for n := range c.Services {
			known = append(known, n)
		}
		sort.Strings(known)
		return svcsup.ServiceConfig{}, fmt.Errorf("service %q not in config (known: %s)", name, strings.Join(known, ", "))
	}
	return svcsup.ServiceConfig{
		Name:         name,
		ExecPath:     entry.Exec,
		Args:         entry.Args,
		OverlayDirs:  entry.Overlays,
		Env:          flattenEnv(entry.Env),
		Debug:        entry.Debug || debug,
		PIDFile:      entry.PIDFile,
		ReadyAddr:    entry.ReadyAddr,
		ReadyTimeout: entry.ReadyTimeout,
	}, nil
}

// flattenEnv converts the config env map into KEY=VALUE pairs, expanding
// $VAR references against the CLI's own environment. Keys are sorted so
// the argument vector is stable run to run.
func flattenEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(env))
	for k, v := range env {
		if strings.Contains(v, "$") {
			v = os.ExpandEnv(v)
		}
		pairs = append(pairs, strings.ToUpper(k)+"="+v)
	}
	sort.Strings(pairs)
	return pairs
}
