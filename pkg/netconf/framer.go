package netconf

import (
	"bufio"
	"bytes"
	"io"
)

// Delimiter ends every NETCONF 1.0 message.
const Delimiter = "]]>]]>"

// Framer splits a byte stream into end-of-message delimited messages.
type Framer struct {
	r *bufio.Reader
	w io.Writer
}

// NewFramer wraps rw.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{r: bufio.NewReader(rw), w: rw}
}

// ReadMessage returns the next message without its delimiter. Bytes left
// over when the stream ends are returned with io.ErrUnexpectedEOF unless
// they are only whitespace.
func (f *Framer) ReadMessage() ([]byte, error) {
	var buf bytes.Buffer
	delim := []byte(Delimiter)
	for {
		c, err := f.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(bytes.TrimSpace(buf.Bytes())) > 0 {
				return buf.Bytes(), io.ErrUnexpectedEOF
			}
			return nil, err
		}
		buf.WriteByte(c)
		if c == '>' && bytes.HasSuffix(buf.Bytes(), delim) {
			msg := buf.Bytes()[:buf.Len()-len(delim)]
			return bytes.TrimSpace(msg), nil
		}
	}
}

// WriteMessage sends msg followed by the delimiter.
func (f *Framer) WriteMessage(msg []byte) error {
	out := make([]byte, 0, len(msg)+len(Delimiter)+1)
	out = append(out, msg...)
	out = append(out, '\n')
	out = append(out, Delimiter...)
	_, err := f.w.Write(out)
	return err
}
