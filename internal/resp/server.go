package resp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mylxsw/asteria/log"
	"github.com/mylxsw/short-link/internal/link"
	"github.com/secmask/go-redisproto"
)

// ReplyWriter is the subset of the redis protocol writer the commands use
type ReplyWriter interface {
	WriteBulkString(s string) error
	WriteBulkStrings(bulks []string) error
	WriteInt(v int64) error
	WriteError(e string) error
	WriteSimpleString(s string) error
}

// Server exposes the link service over the redis protocol
type Server struct {
	listener net.Listener
	svc      *link.Service
	shortURL func(shortID string) string

	connectionsLock sync.Mutex
	connections     map[string]net.Conn
}

// NewServer create a redis protocol server listening on listen
func NewServer(listen string, svc *link.Service, shortURL func(shortID string) string) (*Server, error) {
	ln, err := newListener(listen)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener:    ln,
		svc:         svc,
		shortURL:    shortURL,
		connections: make(map[string]net.Conn),
	}, nil
}

// Addr returns the listening address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start accepts connections until ctx is done
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()

		s.connectionsLock.Lock()
		for _, conn := range s.connections {
			_ = conn.Close()
		}
		s.connectionsLock.Unlock()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				log.Warningf("accept failed temporary: %s", netErr.Error())
				continue
			}

			return err
		}

		id := uuid.New().String()
		s.connectionsLock.Lock()
		s.connections[id] = conn
		s.connectionsLock.Unlock()

		go func() {
			defer func() {
				s.connectionsLock.Lock()
				delete(s.connections, id)
				s.connectionsLock.Unlock()
			}()

			s.handleConnection(ctx, id, conn)
		}()
	}
}

func (s *Server) handleConnection(ctx context.Context, id string, conn net.Conn) {
	defer func() { _ = conn.Close() }()
	defer recoverHandler()

	logger := log.WithFields(log.Fields{"conn": id, "remote": conn.RemoteAddr().String()})
	logger.Debug("new resp connection")

	parser := redisproto.NewParser(conn)
	buffer := bufio.NewWriter(conn)
	writer := redisproto.NewWriter(buffer)

	for {
		command, err := parser.ReadCommand()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Debugf("read command failed: %v", err)
				_ = writer.WriteError("ERR " + err.Error())
				_ = buffer.Flush()
			}
			return
		}

		args := make([][]byte, command.ArgCount())
		for i := range args {
			args[i] = command.Get(i)
		}

		quit := s.Execute(ctx, writer, args)
		if err := buffer.Flush(); err != nil {
			logger.Debugf("write reply failed: %v", err)
			return
		}

		if quit {
			return
		}
	}
}

// Execute runs a single command and writes its reply. It reports whether the
// client asked to close the connection.
func (s *Server) Execute(ctx context.Context, w ReplyWriter, args [][]byte) bool {
	if len(args) == 0 {
		_ = w.WriteError("ERR empty command")
		return false
	}

	name := strings.ToUpper(string(args[0]))
	params := args[1:]

	arity := map[string]int{
		"PING": 0, "QUIT": 0, "LINKS": 0, "POOL": 0,
		"SHORTEN": 1, "RESOLVE": 1, "CLICKS": 1, "DEL": 1,
	}

	expected, ok := arity[name]
	if !ok {
		_ = w.WriteError(fmt.Sprintf("ERR unknown command '%s'", strings.ToLower(name)))
		return false
	}

	if len(params) != expected {
		_ = w.WriteError(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
		return false
	}

	switch name {
	case "PING":
		_ = w.WriteSimpleString("PONG")
	case "QUIT":
		_ = w.WriteSimpleString("OK")
		return true
	case "SHORTEN":
		created, err := s.svc.Shorten(ctx, string(params[0]))
		if err != nil {
			writeErr(w, err)
			return false
		}
		_ = w.WriteBulkStrings([]string{created.ShortID, s.shortURL(created.ShortID)})
	case "RESOLVE":
		l, err := s.svc.Resolve(ctx, string(params[0]))
		if err != nil {
			writeErr(w, err)
			return false
		}
		_ = w.WriteBulkString(l.OriginalURL)
	case "CLICKS":
		l, err := s.svc.Get(ctx, string(params[0]))
		if err != nil {
			writeErr(w, err)
			return false
		}
		_ = w.WriteInt(l.Clicks)
	case "DEL":
		if err := s.svc.Delete(ctx, string(params[0])); err != nil {
			writeErr(w, err)
			return false
		}
		_ = w.WriteInt(1)
	case "LINKS":
		ids, err := s.svc.ActiveIDs(ctx)
		if err != nil {
			writeErr(w, err)
			return false
		}
		_ = w.WriteBulkStrings(ids)
	case "POOL":
		ids, err := s.svc.ReusePool(ctx)
		if err != nil {
			writeErr(w, err)
			return false
		}
		_ = w.WriteBulkStrings(ids)
	}

	return false
}

func writeErr(w ReplyWriter, err error) {
	if errors.Is(err, link.ErrNotFound) {
		_ = w.WriteError("NOTFOUND " + err.Error())
		return
	}

	_ = w.WriteError("ERR " + err.Error())
}

var _ ReplyWriter = (*redisproto.Writer)(nil)
