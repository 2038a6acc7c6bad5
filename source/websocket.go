package source

import (
	"fmt"
	"io"

	"github.com/gorilla/websocket"
)

// Websocket streams IQ data from a websocket endpoint that sends binary
// messages containing raw IQ frames in the given format. Message sizes
// need not match the block size, samples are reframed into fixed-size
// blocks.
type Websocket struct {
	conn      *websocket.Conn
	format    Format
	blockSize int

	pending []complex64
}

func DialWebsocket(url string, format Format, blockSize int) (*Websocket, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %s: %w", url, err)
	}

	return &Websocket{
		conn:      conn,
		format:    format,
		blockSize: blockSize,
	}, nil
}

func (w *Websocket) ReadBlock() ([]complex64, error) {
	for len(w.pending) < w.blockSize {
		msgType, data, err := w.conn.ReadMessage()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return w.drain()
		}
		if err != nil {
			return nil, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		w.pending = w.format.decode(w.pending, data)
	}

	block := make([]complex64, w.blockSize)
	copy(block, w.pending)
	w.pending = w.pending[:copy(w.pending, w.pending[w.blockSize:])]
	return block, nil
}

// drain delivers the remaining samples as a final short block before the
// stream ends.
func (w *Websocket) drain() ([]complex64, error) {
	if len(w.pending) == 0 {
		return nil, io.EOF
	}
	block := w.pending
	w.pending = nil
	return block, nil
}

func (w *Websocket) Close() error {
	return w.conn.Close()
}
