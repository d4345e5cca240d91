package config

import (
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vvvy/webhdfs-itt/pkg/config/types"
)

type Option func(options *Params)

func WithFileName(name string) Option {
	return func(options *Params) {
		options.FileName = name
	}
}

func WithFileType(ftype string) Option {
	return func(options *Params) {
		options.FileType = ftype
	}
}

// WithFile points the loader at one specific config file instead of the
// itt.yaml convention. The file must exist.
func WithFile(fileName string) Option {
	return func(options *Params) {
		options.FileHandler = func(string) error {
			viper.SetConfigFile(fileName)
			return viper.ReadInConfig()
		}
	}
}

func WithDefaultConfig(cfg types.Config) Option {
	return func(options *Params) {
		options.DefaultConfig = cfg
	}
}

func WithFileHandler(handler func(name string) error) Option {
	return func(options *Params) {
		options.FileHandler = handler
	}
}

func NoopConfigHandler(fileName string) error {
	return nil
}

// WriteConfigHandler persists the resolved configuration to fileName and
// reads it back so later overrides layer on top of it.
func WriteConfigHandler(fileName string) error {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg, configDecoderHook); err != nil {
		return err
	}

	cfgBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	flags := os.O_CREATE | os.O_TRUNC | os.O_WRONLY
	f, err := os.OpenFile(fileName, flags, os.FileMode(0o644)) //nolint:gomnd
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(cfgBytes); err != nil {
		return err
	}

	return viper.ReadInConfig()
}

// ReadConfigHandler reads values from the config file when one exists; a
// missing file just means defaults and the environment decide everything.
func ReadConfigHandler(fileName string) error {
	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	return viper.ReadInConfig()
}
