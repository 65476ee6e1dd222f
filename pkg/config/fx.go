package config

import (
	"os"

	"github.com/pseudomuto/groundskeeper/pkg/consts"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	// Loads groundskeeper.yaml from the working directory when present. A nil
	// config is provided when the file is absent so commands that don't need
	// one (help, version) still work; commands that do guard with a Before.
	func() (*Config, error) {
		if _, err := os.Stat(consts.DefaultConfigFile); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(consts.DefaultConfigFile)
	},
))
