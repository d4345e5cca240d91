package types

// Backend names a cluster provisioning back end.
type Backend string

const (
	// BackendCompose runs every node as a docker compose service on this
	// host.
	BackendCompose Backend = "compose"
	// BackendVagrant drives Bigtop-style virtual machines with statically
	// forwarded ports.
	BackendVagrant Backend = "vagrant"
)

// Config is the immutable run configuration. It is resolved once at
// start-up and handed to components as a value; nothing reads
// configuration state after that.
type Config struct {
	// Workdir is the directory holding every artifact of one run: the
	// reference file, exchange record, chunks, outputs and markers.
	Workdir string `yaml:"workdir,omitempty"`

	Source  SourceConfig  `yaml:"source,omitempty"`
	Remote  RemoteConfig  `yaml:"remote,omitempty"`
	Cluster ClusterConfig `yaml:"cluster,omitempty"`
	Scripts ScriptsConfig `yaml:"scripts,omitempty"`
	SUT     SUTConfig     `yaml:"sut,omitempty"`
}

type SourceConfig struct {
	// URL to download the reference file from when no local copy exists.
	URL string `yaml:"url,omitempty"`
	// Path of a local reference file to use in place, skipping download.
	Path string `yaml:"path,omitempty"`
	// File is the reference file's name inside the working directory and
	// the remote directory.
	File string `yaml:"file,omitempty"`
}

type RemoteConfig struct {
	// Dir is the cluster directory holding the test files.
	Dir string `yaml:"dir,omitempty"`
	// User is the identity remote filesystem operations run under.
	User string `yaml:"user,omitempty"`
}

type ClusterConfig struct {
	Backend Backend `yaml:"backend,omitempty"`
	// Nodes is the cluster size. Every node runs the data service; node 1
	// additionally runs the coordinator.
	Nodes int `yaml:"nodes,omitempty"`
	// NamenodePort is the coordinator's cluster-internal HTTP port.
	NamenodePort int `yaml:"namenodePort,omitempty"`
	// DatanodePort is the data service's cluster-internal HTTP port.
	DatanodePort int `yaml:"datanodePort,omitempty"`

	// Image is the node image for generated compose files.
	Image string `yaml:"image,omitempty"`
	// ComposeFile points at a hand-written compose file; when empty one
	// is generated into the working directory.
	ComposeFile string `yaml:"composeFile,omitempty"`
	// Project is the compose project name.
	Project string `yaml:"project,omitempty"`

	// VagrantDir is the directory containing the Vagrantfile.
	VagrantDir string `yaml:"vagrantDir,omitempty"`
	// HostnamePattern expands a node ordinal to its hostname.
	HostnamePattern string `yaml:"hostnamePattern,omitempty"`
	// PortShift is the per-ordinal offset the Vagrantfile applies when
	// forwarding ports to the host.
	PortShift int `yaml:"portShift,omitempty"`
	// ForwardedPorts lists the internal ports the Vagrantfile forwards.
	ForwardedPorts []int `yaml:"forwardedPorts,omitempty"`
}

type ScriptsConfig struct {
	// Read is the read program source text, e.g. `r:128m s:0 r:1m`.
	Read string `yaml:"read,omitempty"`
	// Write is the write program source text, a list of split points.
	Write string `yaml:"write,omitempty"`
}

type SUTConfig struct {
	// Command invokes the system under test, argv style.
	Command []string `yaml:"command,omitempty"`
	// Dir is the current directory the command runs in. Empty means the
	// working directory, which is where the exchange record's relative
	// paths resolve.
	Dir string `yaml:"dir,omitempty"`
	// EnvFile is a dotenv file whose variables are added to the system
	// under test's environment.
	EnvFile string `yaml:"envFile,omitempty"`
}
