package source

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	tci "github.com/ftl/tci/client"
)

const (
	defaultTCIHostname = "localhost"
	defaultTCIPort     = 40001
	tciTimeout         = 10 * time.Second
)

// TCI streams IQ data from a TCI-capable SDR. The client keeps the
// connection open and reconnects automatically; incoming IQ frames are
// handed to ReadBlock through a bounded channel, so a slow consumer
// applies backpressure to the TCI stream.
type TCI struct {
	client *tci.Client
	trx    int

	blocks chan []complex64
	close  chan struct{}
}

func DialTCI(host string, trx int, sampleRate int) (*TCI, error) {
	tcpHost, err := parseTCPAddrArg(host, defaultTCIHostname, defaultTCIPort)
	if err != nil {
		return nil, fmt.Errorf("invalid TCI host: %v", err)
	}
	if tcpHost.Port == 0 {
		tcpHost.Port = defaultTCIPort
	}

	result := &TCI{
		trx:    trx,
		blocks: make(chan []complex64, 1),
		close:  make(chan struct{}),
	}
	result.client = tci.KeepOpen(tcpHost, tciTimeout, false)
	result.client.Notify(&tciListener{source: result, sampleRate: sampleRate})

	return result, nil
}

func (t *TCI) ReadBlock() ([]complex64, error) {
	select {
	case block := <-t.blocks:
		return block, nil
	case <-t.close:
		return nil, io.EOF
	}
}

func (t *TCI) Close() error {
	select {
	case <-t.close:
		return nil
	default:
	}
	close(t.close)
	t.client.StopIQ(t.trx)
	return nil
}

func (t *TCI) push(block []complex64) {
	select {
	case t.blocks <- block:
	case <-t.close:
	}
}

type tciListener struct {
	source     *TCI
	sampleRate int
}

func (l *tciListener) Connected(connected bool) {
	if !connected {
		return
	}
	l.source.client.SetIQSampleRate(tci.IQSampleRate(l.sampleRate))
	l.source.client.StartIQ(l.source.trx)
}

func (l *tciListener) IQData(trx int, sampleRate tci.IQSampleRate, data []float32) {
	if trx != l.source.trx {
		return
	}

	block := make([]complex64, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		block = append(block, complex(data[i], data[i+1]))
	}
	l.source.push(block)
}

// TCP address handling

func parseTCPAddrArg(arg string, defaultHost string, defaultPort int) (*net.TCPAddr, error) {
	host, port := splitHostPort(arg)
	if host == "" {
		host = defaultHost
	}
	if port == "" {
		port = strconv.Itoa(defaultPort)
	}

	return net.ResolveTCPAddr("tcp", net.JoinHostPort(host, port))
}

func splitHostPort(hostport string) (host, port string) {
	host = hostport

	colon := strings.LastIndexByte(host, ':')
	if colon != -1 && validOptionalPort(host[colon:]) {
		host, port = host[:colon], host[colon+1:]
	}

	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}

	return
}

func validOptionalPort(port string) bool {
	if port == "" {
		return true
	}
	if port[0] != ':' {
		return false
	}
	for _, b := range port[1:] {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}
