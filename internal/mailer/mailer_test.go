package mailer

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prms-app/prms-server/internal/config"
)

// silentSMTP accepts connections and never sends the SMTP greeting, which
// is how a wedged relay looks from the client side.
func silentSMTP(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestSendResetCodeHonorsContext(t *testing.T) {
	m := New(config.Config{
		SMTPHost: "127.0.0.1",
		SMTPPort: silentSMTP(t),
		SMTPFrom: "PRMS Support <no-reply@prms.local>",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.SendResetCode(ctx, "amy@example.com", "Amy", "123456")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 3*time.Second, "a stuck relay must not hold the caller")
}

func TestSendResetCodeDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close()) // free the port so the dial is refused

	m := New(config.Config{SMTPHost: "127.0.0.1", SMTPPort: port, SMTPFrom: "x@y"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Error(t, m.SendResetCode(ctx, "amy@example.com", "Amy", "123456"))
}
