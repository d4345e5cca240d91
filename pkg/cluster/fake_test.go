//go:build unit || !integration

package cluster

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vvvy/webhdfs-itt/pkg/models"
)

// fakeProvisioner records exec calls and serves canned results, standing
// in for a live back end.
type fakeProvisioner struct {
	hostnamePattern string
	unexposed       map[int]bool
	portShift       int

	execCalls  [][]string
	execOutput map[string]string
	execErr    error
	stdins     []string
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{
		hostnamePattern: "node%d",
		unexposed:       map[int]bool{},
		portShift:       1000,
		execOutput:      map[string]string{},
	}
}

func (f *fakeProvisioner) Up(context.Context) error   { return nil }
func (f *fakeProvisioner) Down(context.Context) error { return nil }

func (f *fakeProvisioner) Exec(_ context.Context, _ int, cmd []string) (string, error) {
	return f.record(nil, cmd)
}

func (f *fakeProvisioner) ExecInput(_ context.Context, _ int, stdin io.Reader, cmd []string) (string, error) {
	return f.record(stdin, cmd)
}

func (f *fakeProvisioner) record(stdin io.Reader, cmd []string) (string, error) {
	f.execCalls = append(f.execCalls, cmd)
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		f.stdins = append(f.stdins, string(data))
	}
	if f.execErr != nil {
		return "", f.execErr
	}
	return f.execOutput[strings.Join(cmd, " ")], nil
}

func (f *fakeProvisioner) HostnameOf(ordinal int) string {
	return fmt.Sprintf(f.hostnamePattern, ordinal)
}

func (f *fakeProvisioner) HostAddressOf(_ context.Context, ordinal int, port int) (string, error) {
	if f.unexposed[port] {
		return "", models.NewBaseError("port %d not exposed", port).
			WithCode(models.PortNotExposed)
	}
	return fmt.Sprintf("localhost:%d", port+f.portShift*ordinal), nil
}

var _ Provisioner = (*fakeProvisioner)(nil)
