package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/rcliao/session-recall/internal/config"
	"github.com/rcliao/session-recall/internal/logging"
)

// loadHookConfig never fails: a broken config file is logged and the
// defaults are used, so the hook cannot block the session.
func loadHookConfig(component string) (*config.Config, *logging.Logger) {
	cfg, err := config.Load(configPath)
	cfg = applyFlags(cfg)
	log := logging.New(cfg.Log.Dir, component, cfg.Log.Level)
	if err != nil {
		log.Warn("config fallback to defaults", "err", err)
	}
	return cfg, log
}

// guard logs a panic from a hook body instead of crashing the caller.
func guard(log *logging.Logger) {
	if r := recover(); r != nil {
		log.Error("panic", "err", fmt.Sprint(r), "stack", string(debug.Stack()))
	}
}
