package remote

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/filedata"
)

func startTestServer(t *testing.T) (*Server, net.Conn) {
	t.Helper()
	registry := filedata.NewRegistry(nil, nil, nil)
	cacheLayout := cache.Layout{ThumbRoot: t.TempDir(), SimRoot: t.TempDir()}
	srv := New(registry, nil, cache.NewStore(cacheLayout), cacheLayout, nil, nil, nil)

	socketPath := filepath.Join(t.TempDir(), ".command")
	listener, err := NewListener(socketPath)
	if err != nil {
		t.Fatalf("NewListener failed: %v", err)
	}
	go srv.Serve(listener)
	t.Cleanup(func() { listener.Close() })

	conn, err := DialTimeout(socketPath, time.Second)
	if err != nil {
		t.Fatalf("DialTimeout failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func sendCommand(t *testing.T, conn net.Conn, command string) []string {
	t.Helper()
	if _, err := conn.Write([]byte(command + terminator + "\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var lines []string
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if line == terminator+"\n" {
			break
		}
		lines = append(lines, line[:len(line)-1])
	}
	return lines
}

func TestNewListenerDetectsStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".command")

	raw, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("unable to bind stale socket: %v", err)
	}
	unixListener := raw.(*net.UnixListener)
	unixListener.SetUnlinkOnClose(false)
	unixListener.Close() // leaves the socket file behind with nothing listening, like a crash would

	listener, err := NewListener(path)
	if err != nil {
		t.Fatalf("expected NewListener to clean up a stale socket, got: %v", err)
	}
	listener.Close()
}

func TestNewListenerRejectsWhenServerAlreadyRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".command")
	l1, err := NewListener(path)
	if err != nil {
		t.Fatalf("first NewListener failed: %v", err)
	}
	defer l1.Close()
	go func() {
		for {
			c, err := l1.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	if _, err := NewListener(path); err != ErrAlreadyRunning {
		t.Errorf("got %v, want ErrAlreadyRunning", err)
	}
}

func TestQuitCommandSignalsServer(t *testing.T) {
	srv, conn := startTestServer(t)
	sendCommand(t, conn, "--quit")

	select {
	case <-srv.QuitRequested():
	case <-time.After(time.Second):
		t.Fatal("expected QuitRequested to fire after --quit")
	}
}

func TestOpenAndGetFilelist(t *testing.T) {
	_, conn := startTestServer(t)

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("y"), 0644)

	sendCommand(t, conn, "--open:"+dir)
	lines := sendCommand(t, conn, "--get-filelist")

	if len(lines) != 2 {
		t.Fatalf("got %v, want 2 entries", lines)
	}
}

func TestSelectionAddAndGetSelection(t *testing.T) {
	_, conn := startTestServer(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	os.WriteFile(path, []byte("x"), 0644)

	sendCommand(t, conn, "--selection-add:"+path)
	lines := sendCommand(t, conn, "--get-selection")

	if len(lines) != 1 || lines[0] != path {
		t.Errorf("got %v, want [%s]", lines, path)
	}
}

func TestWindowBindingIsSticky(t *testing.T) {
	srv, conn := startTestServer(t)

	w := srv.NewWindow()
	sendCommand(t, conn, "--id:"+w.ID)
	sendCommand(t, conn, "--next")
	path := filepath.Join(t.TempDir(), "a.jpg")
	sendCommand(t, conn, "--selection-add:"+path)

	if srv.window(w.ID) != w {
		t.Error("expected the bound window to be the one returned by NewWindow")
	}
	if got := w.SelectionList(); len(got) != 1 || got[0] != path {
		t.Errorf("got selection %v on the bound window, want [%s]", got, path)
	}
}

func TestUnknownCommandReportsAnError(t *testing.T) {
	_, conn := startTestServer(t)
	lines := sendCommand(t, conn, "--not-a-real-command")
	if len(lines) != 1 {
		t.Fatalf("got %v, want one error line", lines)
	}
}

func TestRefreshDirectoryRelistsWindowsShowingIt(t *testing.T) {
	srv, conn := startTestServer(t)

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644)
	sendCommand(t, conn, "--open:"+dir)

	os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("y"), 0644)
	srv.RefreshDirectory(dir)

	lines := sendCommand(t, conn, "--get-filelist")
	if len(lines) != 2 {
		t.Fatalf("got %v, want 2 entries after refresh", lines)
	}
}

func TestWindowRecordsItsOpenDirectory(t *testing.T) {
	srv, conn := startTestServer(t)

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644)
	sendCommand(t, conn, "--open:"+dir)

	var found bool
	for _, id := range srv.WindowList() {
		if w := srv.window(id); w.Dir == dir {
			found = true
		}
	}
	if !found {
		t.Errorf("expected some window's Dir to be %q", dir)
	}
}

func TestPrint0SwitchesFilelistDelimiter(t *testing.T) {
	_, conn := startTestServer(t)

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644)

	sendCommand(t, conn, "--open:"+dir)
	sendCommand(t, conn, "--print0")

	if _, err := conn.Write([]byte("--get-filelist" + terminator + "\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reader := bufio.NewReader(conn)
	data, err := reader.ReadString('\x00')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if filepath.Base(data[:len(data)-1]) != "a.jpg" {
		t.Errorf("got %q, want a null-terminated path ending in a.jpg", data)
	}
}
