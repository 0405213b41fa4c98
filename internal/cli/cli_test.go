package cli

import (
	"bytes"
	stdcontext "context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/launcher/internal/service"
)

func init() {
	color.NoColor = true
}

type fakeClient struct {
	addr   string
	calls  []string
	fail   bool
	closed bool
}

func (f *fakeClient) result(name string) service.Result {
	if f.fail {
		return service.Result{Module: name, Outcome: "spawn_error", Message: "Except:boom", Error: "boom"}
	}
	return service.Result{Module: name, Outcome: "started", Message: "start success.", PID: 99, OK: true}
}

func (f *fakeClient) Start(_ stdcontext.Context, name string) (service.Result, error) {
	f.calls = append(f.calls, "start "+name)
	return f.result(name), nil
}

func (f *fakeClient) Stop(_ stdcontext.Context, name string) (service.Result, error) {
	f.calls = append(f.calls, "stop "+name)
	return service.Result{Module: name, Outcome: "stopped", Message: "stop success.", OK: true}, nil
}

func (f *fakeClient) Restart(_ stdcontext.Context, name string) ([]service.Result, error) {
	f.calls = append(f.calls, "restart "+name)
	return []service.Result{{Module: name, Message: "stop success.", OK: true}, f.result(name)}, nil
}

func (f *fakeClient) StartAll(stdcontext.Context) ([]service.Result, error) {
	f.calls = append(f.calls, "start-all")
	return []service.Result{f.result("a"), f.result("b")}, nil
}

func (f *fakeClient) StopAll(stdcontext.Context) ([]service.Result, error) {
	f.calls = append(f.calls, "stop-all")
	return nil, errors.New("unavailable")
}

func (f *fakeClient) Status(stdcontext.Context) ([]service.Module, error) {
	f.calls = append(f.calls, "status")
	return []service.Module{
		{Name: "ossftp", State: "running", PID: 1234, Command: []string{"python3", "ftpserver.py"}},
		{Name: "idle", State: "stopped"},
	}, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func useFakeClient(t *testing.T, client *fakeClient) {
	t.Helper()
	prev := dialer
	dialer = func(addr string) (controlClient, error) {
		client.addr = addr
		return client, nil
	}
	t.Cleanup(func() { dialer = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(stdcontext.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestStartCommand(t *testing.T) {
	client := &fakeClient{}
	useFakeClient(t, client)
	path := writeConfig(t, "modules:\n  launcher:\n    control_addr: 127.0.0.1:6000\n")

	out, err := execute(t, "-c", path, "start", "ossftp")
	require.NoError(t, err)
	assert.Contains(t, out, "ok   ossftp: start success. (pid 99)")
	assert.Equal(t, []string{"start ossftp"}, client.calls)
	assert.Equal(t, "127.0.0.1:6000", client.addr)
	assert.True(t, client.closed)
}

func TestAddrFlagOverridesConfig(t *testing.T) {
	client := &fakeClient{}
	useFakeClient(t, client)

	_, err := execute(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "--addr", "10.0.0.1:7000", "stop", "ossftp")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:7000", client.addr)
}

func TestMissingConfigUsesDefaultAddr(t *testing.T) {
	client := &fakeClient{}
	useFakeClient(t, client)

	_, err := execute(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "status")
	require.NoError(t, err)
	assert.Equal(t, defaultControlAddr, client.addr)
}

func TestFailedResultsExitNonZero(t *testing.T) {
	client := &fakeClient{fail: true}
	useFakeClient(t, client)

	out, err := execute(t, "--addr", "x", "start-all")
	require.Error(t, err)
	assert.Equal(t, "2 modules failed", err.Error())
	assert.Contains(t, out, "FAIL a: Except:boom")

	_, err = execute(t, "--addr", "x", "restart", "ossftp")
	assert.EqualError(t, err, "1 module failed")
}

func TestTransportErrorIsReturned(t *testing.T) {
	useFakeClient(t, &fakeClient{})

	_, err := execute(t, "--addr", "x", "stop-all")
	assert.EqualError(t, err, "unavailable")
}

func TestSingleModuleCommandsRequireName(t *testing.T) {
	useFakeClient(t, &fakeClient{})

	_, err := execute(t, "--addr", "x", "start")
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	useFakeClient(t, &fakeClient{})

	out, err := execute(t, "--addr", "x", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "MODULE")
	assert.Contains(t, out, "ossftp")
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "python3 ftpserver.py")
	assert.Contains(t, out, "idle")
}

func TestListCommand(t *testing.T) {
	path := writeConfig(t, `modules:
  launcher:
    root: /opt/modules
  ossftp:
    port: 2048
    protocol: https
  worker:
    entry: run.py
`)

	out, err := execute(t, "-c", path, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Configured modules (root /opt/modules):")
	assert.Contains(t, out, "1. ossftp")
	assert.Contains(t, out, "python3 /opt/modules/ossftp/ftpserver.py --port=2048 --loglevel=INFO --protocol=https")
	assert.Contains(t, out, "2. worker")
	assert.Contains(t, out, "python3 /opt/modules/worker/run.py --loglevel=INFO")
	assert.NotContains(t, out, "launcher\n")
}

func TestListCommandMissingConfig(t *testing.T) {
	_, err := execute(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
