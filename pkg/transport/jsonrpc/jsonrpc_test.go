package jsonrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type EchoArgs struct {
	Msg string `json:"msg"`
}

type EchoReply struct {
	Msg string `json:"msg"`
}

type EchoService struct{}

func (EchoService) Echo(_ *http.Request, args *EchoArgs, reply *EchoReply) error {
	reply.Msg = args.Msg
	return nil
}

func call(t *testing.T, url, body string, out any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestNodeContact(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := New().Register("Echo", new(EchoService)).Init(ctx, "")
	require.NoError(t, err)
	jh := h.(*Handle)
	assert.True(t, strings.HasPrefix(h.Contact().String(), "jsonrpc://127.0.0.1:"))
	assert.True(t, strings.HasSuffix(h.Contact().String(), Path))

	var contact struct {
		Result ContactReply `json:"result"`
	}
	call(t, jh.URL(), `{"jsonrpc":"2.0","method":"Node.Contact","params":{},"id":1}`, &contact)
	assert.Equal(t, h.Contact().String(), contact.Result.Address)

	var echo struct {
		Result EchoReply `json:"result"`
	}
	call(t, jh.URL(), `{"jsonrpc":"2.0","method":"Echo.Echo","params":{"msg":"hi"},"id":2}`, &echo)
	assert.Equal(t, "hi", echo.Result.Msg)

	require.NoError(t, h.Shutdown(ctx))
	require.NoError(t, h.Shutdown(ctx))
	_, err = http.Post(jh.URL(), "application/json", strings.NewReader("{}"))
	assert.Error(t, err)
}
