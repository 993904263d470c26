package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/encodeous/routesim/sim"
	"github.com/encodeous/routesim/state"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/viper"
)

func readScenario(file string) (*state.Scenario, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var cfg state.Scenario
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	if engine := viper.GetString("engine"); engine != "" {
		cfg.Engine = state.EngineKind(engine)
	}
	return &cfg, nil
}

// newLogger builds the console logger, fanned out to --log-path when set
func newLogger(prefix string) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: prefix,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				// wall clock time means nothing in a simulation
				if attr.Key == slog.TimeKey {
					return slog.Attr{}
				}
				return attr
			},
		}))

	var closer io.Closer = io.NopCloser(nil)
	if logPath := viper.GetString("log-path"); logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		closer = f
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// simulate loads the scenario at file and runs it to completion
func simulate(file string) (*sim.Network, *state.Scenario, error) {
	cfg, err := readScenario(file)
	if err != nil {
		return nil, nil, err
	}
	logger, closer, err := newLogger(strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
	if err != nil {
		return nil, nil, err
	}
	defer closer.Close()

	n, err := sim.LoadScenario(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("running scenario", "engine", cfg.Engine, "nodes", len(cfg.Nodes), "links", len(cfg.Links), "duration", cfg.Duration.Std())
	n.Run(cfg.Duration.Std())
	return n, cfg, nil
}
