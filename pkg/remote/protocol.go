package remote

import (
	"bufio"
	"net"
	"strings"
)

// terminator ends every command sent to the server and every response
// sent back. A bare terminator line closes out a response.
const terminator = "<gq_end_of_command>"

// conn wraps a remote-control connection with line-delimited command
// reading and response writing, plus the session's print0 flag (set by
// the --print0 command, sticky for the life of the connection).
type conn struct {
	netConn  net.Conn
	reader   *bufio.Reader
	print0   bool
	windowID string
}

func newConn(netConn net.Conn) *conn {
	return &conn{netConn: netConn, reader: bufio.NewReader(netConn)}
}

// readCommand reads one command terminated by terminator, stripping the
// terminator itself. It returns io.EOF (wrapped) once the client hangs
// up with nothing further buffered.
func (c *conn) readCommand() (string, error) {
	var sb strings.Builder
	for {
		line, err := c.reader.ReadString('\n')
		sb.WriteString(line)
		if err != nil {
			if sb.Len() == 0 {
				return "", err
			}
			break
		}
		if idx := strings.Index(sb.String(), terminator); idx >= 0 {
			break
		}
	}
	text := sb.String()
	if idx := strings.Index(text, terminator); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimRight(text, "\r\n"), nil
}

// writeLine writes one line of response text, newline-terminated.
func (c *conn) writeLine(text string) error {
	_, err := c.netConn.Write([]byte(text + "\n"))
	return err
}

// writeTerminator ends the current response.
func (c *conn) writeTerminator() error {
	_, err := c.netConn.Write([]byte(terminator + "\n"))
	return err
}

// writeEntries writes a list of result entries, respecting the
// connection's print0 mode: null-delimited and field-null-joined
// instead of newline-delimited and tab-joined.
func (c *conn) writeEntries(entries [][]string) error {
	if c.print0 {
		for _, fields := range entries {
			if _, err := c.netConn.Write([]byte(strings.Join(fields, "\x00") + "\x00")); err != nil {
				return err
			}
		}
		return nil
	}
	for _, fields := range entries {
		if err := c.writeLine(strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}
