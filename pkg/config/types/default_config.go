package types

import (
	"os"
)

// Default is the configuration a run starts from before the config file and
// environment overrides are applied. The script defaults reproduce the classic
// soc-pokec workload: two long reads around a short one, and split points at
// 0/10/50/70 percent of the source size.
var Default = Config{
	Workdir: DefaultWorkdir(),
	Source: SourceConfig{
		URL:  "https://snap.stanford.edu/data/soc-pokec-relationships.txt.gz",
		File: "soc-pokec-relationships.txt",
	},
	Remote: RemoteConfig{
		Dir:  "/itt",
		User: "root",
	},
	Cluster: ClusterConfig{
		Backend:         BackendCompose,
		Nodes:           3,
		NamenodePort:    50070,
		DatanodePort:    50075,
		Image:           "sequenceiq/hadoop-docker:2.7.1",
		Project:         "itt",
		VagrantDir:      ".",
		HostnamePattern: "bigtop%d.vagrant",
		PortShift:       1000,
		ForwardedPorts:  []int{50070, 50075},
	},
	Scripts: ScriptsConfig{
		Read:  "r:128m s:0 r:1m s:0 r:128m",
		Write: "0 10% 50% 70%",
	},
}

const defaultWorkdir = "itt-data"

// DefaultWorkdir determines the directory holding downloaded sources, compiled
// programs and run outputs. The ITT_DIR environment variable wins when set,
// otherwise the workdir lives next to wherever the harness is invoked from.
func DefaultWorkdir() string {
	if dir, set := os.LookupEnv("ITT_DIR"); set && dir != "" {
		return dir
	}
	return defaultWorkdir
}
