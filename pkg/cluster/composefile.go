package cluster

import (
	"fmt"
	"os"
	"strings"

	"github.com/phayes/freeport"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vvvy/webhdfs-itt/pkg/config/types"
)

// The generated services carry these variables so a single node image can
// play both roles: ROLES lists the services to start on the node and
// NAMENODE_HOST points every node at the coordinator.
const (
	envRoles        = "CLUSTER_ROLES"
	envNamenodeHost = "NAMENODE_HOST"
)

type composeHealthcheck struct {
	Test     []string `yaml:"test"`
	Interval string   `yaml:"interval"`
	Retries  int      `yaml:"retries"`
}

type composeService struct {
	Image       string              `yaml:"image"`
	Hostname    string              `yaml:"hostname"`
	Environment map[string]string   `yaml:"environment"`
	Ports       []string            `yaml:"ports"`
	Healthcheck *composeHealthcheck `yaml:"healthcheck,omitempty"`
}

type composeDocument struct {
	Services map[string]composeService `yaml:"services"`
}

// EnsureComposeFile writes a compose file for the configured cluster to
// path unless one is already there. An existing file is reused as is:
// regenerating would re-roll the published host ports and invalidate a
// previously written translation table.
func EnsureComposeFile(cfg types.ClusterConfig, path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(err, "checking compose file")
	}

	document, err := generateComposeDocument(cfg)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(document)
	if err != nil {
		return "", errors.Wrap(err, "marshaling compose document")
	}

	// round-trip the output before writing, so a template bug surfaces
	// here and not inside docker compose
	var check map[string]interface{}
	if err := yaml.Unmarshal(data, &check); err != nil {
		return "", errors.Wrap(err, "validating compose document")
	}

	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec
		return "", errors.Wrap(err, "writing compose file")
	}
	return path, nil
}

func generateComposeDocument(cfg types.ClusterConfig) (composeDocument, error) {
	document := composeDocument{Services: make(map[string]composeService, cfg.Nodes)}

	for ordinal := 1; ordinal <= cfg.Nodes; ordinal++ {
		name := ServiceName(ordinal)
		service := composeService{
			Image:    cfg.Image,
			Hostname: name,
			Environment: map[string]string{
				envRoles:        "datanode",
				envNamenodeHost: ServiceName(1),
			},
			Healthcheck: &composeHealthcheck{
				Test:     []string{"CMD-SHELL", fmt.Sprintf("curl -fs http://localhost:%d/ >/dev/null", cfg.DatanodePort)},
				Interval: "5s",
				Retries:  30,
			},
		}

		ports := []int{cfg.DatanodePort}
		if ordinal == 1 {
			service.Environment[envRoles] = "namenode,datanode"
			ports = append([]int{cfg.NamenodePort}, ports...)
		}
		for _, internal := range ports {
			hostPort, err := freeport.GetFreePort()
			if err != nil {
				return composeDocument{}, errors.Wrap(err, "allocating host port")
			}
			service.Ports = append(service.Ports, fmt.Sprintf("%d:%d", hostPort, internal))
		}

		document.Services[name] = service
	}
	return document, nil
}

// ComposePublishedPorts reads back the host ports a generated compose
// file publishes, keyed by `service:internalPort`. Used by tests and for
// diagnostics; the live source of truth is docker itself.
func ComposePublishedPorts(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading compose file")
	}
	var document composeDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, errors.Wrap(err, "parsing compose file")
	}

	published := make(map[string]int)
	for name, service := range document.Services {
		for _, mapping := range service.Ports {
			hostPart, internalPart, found := strings.Cut(mapping, ":")
			if !found {
				return nil, errors.Errorf("malformed port mapping %q in service %s", mapping, name)
			}
			var hostPort, internalPort int
			if _, err := fmt.Sscanf(hostPart, "%d", &hostPort); err != nil {
				return nil, errors.Wrapf(err, "malformed host port in %q", mapping)
			}
			if _, err := fmt.Sscanf(internalPart, "%d", &internalPort); err != nil {
				return nil, errors.Wrapf(err, "malformed internal port in %q", mapping)
			}
			published[fmt.Sprintf("%s:%d", name, internalPort)] = hostPort
		}
	}
	return published, nil
}
