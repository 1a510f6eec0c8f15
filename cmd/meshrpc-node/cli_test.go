package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meshrpc/pkg/codec"
	"meshrpc/pkg/config"
	"meshrpc/pkg/rpc"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKinds(t *testing.T) {
	out, err := execute(t, "kinds")
	require.NoError(t, err)
	assert.Contains(t, out, "  quic\n")
	assert.Contains(t, out, "  winpipe\n")
	assert.Contains(t, out, "  proto\n")
}

func TestCard(t *testing.T) {
	c, err := codec.CBOR()
	require.NoError(t, err)
	data, err := rpc.EncodeContactCard(c, rpc.ContactCard{
		Node: "n1", Transport: "tcp", Address: "tcp://127.0.0.1:7777", Encoding: "cbor",
	})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "card.cbor")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := execute(t, "card", path)
	require.NoError(t, err)
	assert.Contains(t, out, "address:   tcp://127.0.0.1:7777\n")

	_, err = execute(t, "card", "--encoding", "json", path)
	assert.Error(t, err)

	_, err = execute(t, "card", "--encoding", "yaml", path)
	assert.Error(t, err)
}

func TestRunStartsAndStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	cardPath := filepath.Join(dir, "contact.json")
	cfgPath := filepath.Join(dir, "meshrpc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
app_name: run-test
log:
  level: error
  outputs: [`+filepath.Join(dir, "node.log")+`]
rpc:
  encoding: json
  guard: global
  contact_file: `+cardPath+`
  transports:
    - kind: mem
      contact: run-test
      mandatory: true
    - kind: tcp
      contact: 127.0.0.1:0
`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "run"})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(cardPath)
		return err == nil
	}, 10*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	// the global guard leaves tcp unstarted
	assert.Equal(t, "mem\tmem://run-test\n", out.String())
	assert.False(t, strings.Contains(out.String(), "tcp"))

	data, err := os.ReadFile(cardPath)
	require.NoError(t, err)
	card, err := rpc.DecodeContactCard(codec.JSON(), data)
	require.NoError(t, err)
	assert.Equal(t, "run-test", card.Node)
}

func TestRunNodeMandatoryFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := config.Default()
	cfg.RPC.Transports = []config.TransportConfig{{Kind: "tcp", Contact: busy.Addr().String(), Mandatory: true}}
	var out bytes.Buffer
	err = runNode(context.Background(), cfg, zap.NewNop(), &out)
	assert.ErrorIs(t, err, rpc.ErrTransportInitFailed)
	assert.Empty(t, out.String())
}
