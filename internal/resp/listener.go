package resp

import (
	"net"
	"runtime"
	"time"

	"github.com/mylxsw/asteria/log"
)

const KeepalivePeriod = time.Second * 180

type tcpListener struct {
	*net.TCPListener
}

func (l *tcpListener) Accept() (net.Conn, error) {
	conn, err := l.TCPListener.AcceptTCP()
	if err != nil {
		return nil, err
	}
	_ = conn.SetKeepAlive(true)
	_ = conn.SetKeepAlivePeriod(KeepalivePeriod)
	return conn, err
}

// newListener create a tcp listener with keepalive enabled on accepted connections
func newListener(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &tcpListener{ln.(*net.TCPListener)}, nil
}

func recoverHandler() {
	if err := recover(); err != nil {
		buf := make([]byte, 32768)
		n := runtime.Stack(buf, false)

		log.Errorf("goroutine failed: %v, stack: %s", err, string(buf[:n]))
	}
}
