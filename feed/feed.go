// Package feed serves decoded frames to remote consumers over plain TCP:
// every line written to the server is broadcast to all connected clients.
// The server imposes no format, it forwards whatever the frame writer
// renders.
package feed

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"time"
)

const (
	newConnectionDeadline     = 100 * time.Millisecond
	connectionKeepAlivePeriod = 30 * time.Second
)

type Server struct {
	address  *net.TCPAddr
	listener *net.TCPListener
	version  string

	connections []*net.TCPConn

	msg    chan []byte
	close  chan struct{}
	closed chan struct{}
}

func NewServer(address string, version string) (*Server, error) {
	localAddress, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, err
	}

	listener, err := net.ListenTCP("tcp", localAddress)
	if err != nil {
		return nil, err
	}

	result := &Server{
		address:  localAddress,
		listener: listener,
		version:  version,
		msg:      make(chan []byte, 1),
		close:    make(chan struct{}),
		closed:   make(chan struct{}),
	}

	go result.run()

	return result, nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) run() {
	defer close(s.closed)
	welcome := fmt.Sprintf("hc12rx %s\n", s.version)

	removeConnections := make([]int, 0, 10)
	for {
		select {
		case <-s.close:
			for _, conn := range s.connections {
				conn.Close()
			}
			return
		case bytes := <-s.msg:
			removeConnections = removeConnections[:0]
			for i, conn := range s.connections {
				_, err := conn.Write(bytes)
				if err != nil {
					log.Printf("found closed connection %s", conn.RemoteAddr())
					conn.Close()
					removeConnections = append(removeConnections, i)
				}
			}
			for i, index := range removeConnections {
				s.removeConnection(index - i)
			}
		default:
			err := s.listener.SetDeadline(time.Now().Add(newConnectionDeadline))
			if err != nil {
				log.Printf("setting the listener deadline failed: %v", err)
				return
			}
			conn, err := s.listener.AcceptTCP()
			if errors.Is(err, os.ErrDeadlineExceeded) {
				// ignore, nobody is calling
				continue
			} else if err != nil {
				log.Println(err)
				continue
			}

			log.Printf("new incoming connection: %v", conn.RemoteAddr())
			conn.SetKeepAlivePeriod(connectionKeepAlivePeriod)
			conn.SetKeepAlive(true)
			conn.Write([]byte(welcome))
			s.connections = append(s.connections, conn)
		}
	}
}

func (s *Server) removeConnection(index int) {
	if index < 0 || index >= len(s.connections) {
		return
	}
	last := len(s.connections) - 1
	if index < last {
		copy(s.connections[index:], s.connections[index+1:])
	}
	s.connections[last] = nil
	s.connections = s.connections[:last]
}

func (s *Server) Stop() {
	select {
	case <-s.closed:
		return
	default:
		close(s.close)
		<-s.closed
	}
}

// Write broadcasts the given bytes to all connected clients. It never
// blocks on a slow client, the operating system's send buffer decouples
// the decode path from the network.
func (s *Server) Write(bytes []byte) (int, error) {
	select {
	case <-s.closed:
		return 0, net.ErrClosed
	case s.msg <- append([]byte(nil), bytes...):
		return len(bytes), nil
	}
}
