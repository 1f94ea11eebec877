package transport

import (
	"bufio"
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

func TestCRLFWriter(t *testing.T) {
	tests := []struct {
		name   string
		writes []string
		want   string
	}{
		{"plain", []string{"a\nb\n"}, "a\r\nb\r\n"},
		{"already crlf", []string{"a\r\nb"}, "a\r\nb"},
		{"split pair", []string{"a\r", "\nb"}, "a\r\nb"},
		{"no newline", []string{"prompt#"}, "prompt#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			w := NewCRLFWriter(&out)
			for _, s := range tt.writes {
				n, err := w.Write([]byte(s))
				require.NoError(t, err)
				assert.Equal(t, len(s), n)
			}
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestServer_EchoAndClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := Serve(ln, util.WithField("test", t.Name()), func(c net.Conn) {
		line, err := bufio.NewReader(c).ReadString('\n')
		if err == nil {
			c.Write([]byte("echo " + line))
		}
		// hold the connection until the server closes it
		buf := make([]byte, 1)
		c.Read(buf)
	})

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	_, err = conn.Write([]byte("hi\n"))
	require.NoError(t, err)
	reply, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "echo hi\n", reply)

	require.NoError(t, srv.Close())
	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err, "connection should be closed by the server")
}
