package resp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mylxsw/short-link/internal/allocator"
	"github.com/mylxsw/short-link/internal/link"
	"github.com/mylxsw/short-link/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedReply struct {
	kind  string
	value interface{}
}

type fakeWriter struct {
	replies []recordedReply
}

func (f *fakeWriter) record(kind string, value interface{}) error {
	f.replies = append(f.replies, recordedReply{kind: kind, value: value})
	return nil
}

func (f *fakeWriter) WriteBulkString(s string) error        { return f.record("bulk", s) }
func (f *fakeWriter) WriteBulkStrings(bulks []string) error { return f.record("array", bulks) }
func (f *fakeWriter) WriteInt(v int64) error                { return f.record("int", v) }
func (f *fakeWriter) WriteError(e string) error             { return f.record("error", e) }
func (f *fakeWriter) WriteSimpleString(s string) error      { return f.record("simple", s) }

func (f *fakeWriter) last() recordedReply {
	return f.replies[len(f.replies)-1]
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	encoder, err := allocator.NewEncoder(allocator.DefaultAlphabet, 2)
	require.NoError(t, err)

	server, err := NewServer("127.0.0.1:0", link.NewService(allocator.New(encoder, store), store), func(id string) string {
		return "http://s.test/" + id
	})
	require.NoError(t, err)
	return server
}

func args(values ...string) [][]byte {
	res := make([][]byte, len(values))
	for i, v := range values {
		res[i] = []byte(v)
	}
	return res
}

func TestExecuteCommands(t *testing.T) {
	server := newTestServer(t)
	t.Cleanup(func() { _ = server.listener.Close() })

	ctx := context.Background()
	w := &fakeWriter{}

	server.Execute(ctx, w, args("ping"))
	assert.Equal(t, recordedReply{"simple", "PONG"}, w.last())

	server.Execute(ctx, w, args("SHORTEN", "https://example.com"))
	assert.Equal(t, recordedReply{"array", []string{"AA", "http://s.test/AA"}}, w.last())

	server.Execute(ctx, w, args("RESOLVE", "AA"))
	assert.Equal(t, recordedReply{"bulk", "https://example.com"}, w.last())

	server.Execute(ctx, w, args("CLICKS", "AA"))
	assert.Equal(t, recordedReply{"int", int64(1)}, w.last())

	server.Execute(ctx, w, args("LINKS"))
	assert.Equal(t, recordedReply{"array", []string{"AA"}}, w.last())

	server.Execute(ctx, w, args("DEL", "AA"))
	assert.Equal(t, recordedReply{"int", int64(1)}, w.last())

	server.Execute(ctx, w, args("POOL"))
	assert.Equal(t, recordedReply{"array", []string{"AA"}}, w.last())

	server.Execute(ctx, w, args("RESOLVE", "AA"))
	assert.Equal(t, "error", w.last().kind)
	assert.True(t, strings.HasPrefix(w.last().value.(string), "NOTFOUND"))

	server.Execute(ctx, w, args("SHORTEN", "mailto:someone"))
	assert.Equal(t, "error", w.last().kind)

	server.Execute(ctx, w, args("SHORTEN"))
	assert.Equal(t, recordedReply{"error", "ERR wrong number of arguments for 'shorten' command"}, w.last())

	server.Execute(ctx, w, args("FLUSHALL"))
	assert.Equal(t, recordedReply{"error", "ERR unknown command 'flushall'"}, w.last())

	assert.True(t, server.Execute(ctx, w, args("quit")))
}

func writeCommand(conn net.Conn, values ...string) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%d\r\n", len(values)))
	for _, v := range values {
		b.WriteString(fmt.Sprintf("$%d\r\n%s\r\n", len(v), v))
	}
	_, err := conn.Write([]byte(b.String()))
	return err
}

func TestServerOverTCP(t *testing.T) {
	server := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	conn, err := net.DialTimeout("tcp", server.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	reader := bufio.NewReader(conn)

	require.NoError(t, writeCommand(conn, "PING"))
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "+PONG\r\n", line)

	require.NoError(t, writeCommand(conn, "CLICKS", "ZZ"))
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "-NOTFOUND"), line)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
