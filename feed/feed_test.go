package feed

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_BroadcastsToAllClients(t *testing.T) {
	server, err := NewServer("127.0.0.1:0", "test")
	require.NoError(t, err)
	defer server.Stop()

	client1 := dialTestClient(t, server)
	client2 := dialTestClient(t, server)

	_, err = server.Write([]byte("48 43  |HC|\n"))
	require.NoError(t, err)

	assert.Equal(t, "48 43  |HC|\n", readLine(t, client1))
	assert.Equal(t, "48 43  |HC|\n", readLine(t, client2))
}

func TestServer_WritesWelcomeLine(t *testing.T) {
	server, err := NewServer("127.0.0.1:0", "1.2.3")
	require.NoError(t, err)
	defer server.Stop()

	client := dialTestClient(t, server)

	assert.Equal(t, "hc12rx 1.2.3\n", client.welcome)
}

func TestServer_WriteAfterStop(t *testing.T) {
	server, err := NewServer("127.0.0.1:0", "test")
	require.NoError(t, err)

	server.Stop()

	_, err = server.Write([]byte("too late\n"))
	assert.Equal(t, net.ErrClosed, err)
}

type testClient struct {
	conn    net.Conn
	reader  *bufio.Reader
	welcome string
}

func dialTestClient(t *testing.T, server *Server) *testClient {
	t.Helper()

	conn, err := net.Dial("tcp", server.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	client := &testClient{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
	client.welcome = readLine(t, client)
	return client
}

func readLine(t *testing.T, client *testClient) string {
	t.Helper()

	client.conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := client.reader.ReadString('\n')
	require.NoError(t, err)
	return line
}
