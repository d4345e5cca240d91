package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/vvvy/webhdfs-itt/pkg/config/types"
)

const (
	environmentVariablePrefix = "ITT"
	inferConfigTypes          = true
	automaticEnvVar           = true
)

var (
	environmentVariableReplace = strings.NewReplacer(".", "_")
	// configDecoderHook splits whitespace separated environment values into
	// slices so ITT_SUT_COMMAND and ITT_CLUSTER_FORWARDEDPORTS behave like
	// their file counterparts.
	configDecoderHook = viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(" "),
	))
)

const (
	configType = "yaml"
	configName = "itt"
)

// Configuration keys, dotted the way viper nests them. Viper matches them
// against struct fields case insensitively, so the same spelling works in
// config files and, run through KeyAsEnvVar, as ITT_* environment variables.
const (
	WorkdirKey                = "Workdir"
	SourceURLKey              = "Source.URL"
	SourcePathKey             = "Source.Path"
	SourceFileKey             = "Source.File"
	RemoteDirKey              = "Remote.Dir"
	RemoteUserKey             = "Remote.User"
	ClusterBackendKey         = "Cluster.Backend"
	ClusterNodesKey           = "Cluster.Nodes"
	ClusterNamenodePortKey    = "Cluster.NamenodePort"
	ClusterDatanodePortKey    = "Cluster.DatanodePort"
	ClusterImageKey           = "Cluster.Image"
	ClusterComposeFileKey     = "Cluster.ComposeFile"
	ClusterProjectKey         = "Cluster.Project"
	ClusterVagrantDirKey      = "Cluster.VagrantDir"
	ClusterHostnamePatternKey = "Cluster.HostnamePattern"
	ClusterPortShiftKey       = "Cluster.PortShift"
	ClusterForwardedPortsKey  = "Cluster.ForwardedPorts"
	ScriptsReadKey            = "Scripts.Read"
	ScriptsWriteKey           = "Scripts.Write"
	SUTCommandKey             = "SUT.Command"
	SUTDirKey                 = "SUT.Dir"
	SUTEnvFileKey             = "SUT.EnvFile"
)

// Load resolves the run configuration: defaults first, then an optional
// itt.yaml in path, then ITT_* environment variables.
func Load(path string, opts ...Option) (types.Config, error) {
	base := []Option{
		WithDefaultConfig(types.Default),
		WithFileHandler(ReadConfigHandler),
	}
	return initConfig(path, append(base, opts...)...)
}

type Params struct {
	FileName      string
	FileType      string
	FileHandler   func(fileName string) error
	DefaultConfig types.Config
}

func initConfig(path string, opts ...Option) (types.Config, error) {
	params := &Params{
		FileName:      configName,
		FileType:      configType,
		FileHandler:   NoopConfigHandler,
		DefaultConfig: types.Default,
	}

	for _, opt := range opts {
		opt(params)
	}

	viper.AddConfigPath(path)
	viper.SetConfigName(params.FileName)
	viper.SetConfigType(params.FileType)
	viper.SetEnvPrefix(environmentVariablePrefix)
	viper.SetTypeByDefaultValue(inferConfigTypes)
	viper.SetEnvKeyReplacer(environmentVariableReplace)
	setDefaults(params.DefaultConfig)

	if err := params.FileHandler(filepath.Join(path, fmt.Sprintf("%s.%s", params.FileName, params.FileType))); err != nil {
		return types.Config{}, err
	}

	if automaticEnvVar {
		viper.AutomaticEnv()
	}

	var out types.Config
	if err := viper.Unmarshal(&out, configDecoderHook); err != nil {
		return types.Config{}, err
	}

	return out, nil
}

// setDefaults registers every key with viper. Environment overrides are only
// visible to Unmarshal for keys viper already knows about, so each leaf value
// is registered individually.
func setDefaults(cfg types.Config) {
	viper.SetDefault(WorkdirKey, cfg.Workdir)
	viper.SetDefault(SourceURLKey, cfg.Source.URL)
	viper.SetDefault(SourcePathKey, cfg.Source.Path)
	viper.SetDefault(SourceFileKey, cfg.Source.File)
	viper.SetDefault(RemoteDirKey, cfg.Remote.Dir)
	viper.SetDefault(RemoteUserKey, cfg.Remote.User)
	viper.SetDefault(ClusterBackendKey, string(cfg.Cluster.Backend))
	viper.SetDefault(ClusterNodesKey, cfg.Cluster.Nodes)
	viper.SetDefault(ClusterNamenodePortKey, cfg.Cluster.NamenodePort)
	viper.SetDefault(ClusterDatanodePortKey, cfg.Cluster.DatanodePort)
	viper.SetDefault(ClusterImageKey, cfg.Cluster.Image)
	viper.SetDefault(ClusterComposeFileKey, cfg.Cluster.ComposeFile)
	viper.SetDefault(ClusterProjectKey, cfg.Cluster.Project)
	viper.SetDefault(ClusterVagrantDirKey, cfg.Cluster.VagrantDir)
	viper.SetDefault(ClusterHostnamePatternKey, cfg.Cluster.HostnamePattern)
	viper.SetDefault(ClusterPortShiftKey, cfg.Cluster.PortShift)
	viper.SetDefault(ClusterForwardedPortsKey, cfg.Cluster.ForwardedPorts)
	viper.SetDefault(ScriptsReadKey, cfg.Scripts.Read)
	viper.SetDefault(ScriptsWriteKey, cfg.Scripts.Write)
	viper.SetDefault(SUTCommandKey, cfg.SUT.Command)
	viper.SetDefault(SUTDirKey, cfg.SUT.Dir)
	viper.SetDefault(SUTEnvFileKey, cfg.SUT.EnvFile)
}

// Reset clears all configuration, useful for testing.
func Reset() {
	viper.Reset()
}
