package remote

import (
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/gqcore/gqcore/pkg/cache"
	"github.com/gqcore/gqcore/pkg/editorlist"
	"github.com/gqcore/gqcore/pkg/filedata"
	"github.com/gqcore/gqcore/pkg/gqerrors"
	"github.com/gqcore/gqcore/pkg/imageloader"
	"github.com/gqcore/gqcore/pkg/logging"
	"github.com/gqcore/gqcore/pkg/maintenance"
	"github.com/gqcore/gqcore/pkg/metastore"
	"github.com/gqcore/gqcore/pkg/must"
	"github.com/gqcore/gqcore/pkg/watch"
)

// maxConcurrentClients bounds how many connections the server services
// at once; additional connections are accepted and closed immediately,
// matching the "excess connections are closed immediately" contract.
const maxConcurrentClients = 8

// listenBacklog is the accept backlog depth for the remote socket. It is
// not applied: NewListener binds with net.Listen, which takes no backlog
// argument, so the OS default backlog is used.
const listenBacklog = 4

// Server is the remote-control server: it owns the shared collaborators
// every handler needs and tracks one WindowState per bound --id.
type Server struct {
	Registry    *filedata.Registry
	MetaStore   metastore.Collaborator
	CacheStore  *cache.Store
	CacheLayout cache.Layout
	Loader      imageloader.Loader
	Editors     *editorlist.List
	Logger      *logging.Logger
	Watcher     *watch.Watcher

	listener net.Listener

	mu          sync.Mutex
	windows     map[string]*WindowState
	activeTasks map[string]*maintenance.Task

	clientSlots chan struct{}

	quitRequested int32
	quitCh        chan struct{}
}

// New creates a Server. Call Serve to start accepting connections.
func New(registry *filedata.Registry, metaStore metastore.Collaborator, cacheStore *cache.Store, cacheLayout cache.Layout, loader imageloader.Loader, editors *editorlist.List, logger *logging.Logger) *Server {
	return &Server{
		Registry:    registry,
		MetaStore:   metaStore,
		CacheStore:  cacheStore,
		CacheLayout: cacheLayout,
		Loader:      loader,
		Editors:     editors,
		Logger:      logger,
		windows:     make(map[string]*WindowState),
		activeTasks: make(map[string]*maintenance.Task),
		clientSlots: make(chan struct{}, maxConcurrentClients),
		quitCh:      make(chan struct{}),
	}
}

// window returns (creating if necessary) the WindowState bound to id. An
// empty id is given its own anonymous window, since a connection that
// never sends --id: still needs somewhere to hold file-list/position
// state.
func (s *Server) window(id string) *WindowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows[id]; ok {
		return w
	}
	w := newWindowState(id)
	s.windows[id] = w
	return w
}

// NewWindow allocates a fresh window id and its WindowState.
func (s *Server) NewWindow() *WindowState {
	id := uuid.NewString()
	return s.window(id)
}

// CloseWindow discards the WindowState bound to id.
func (s *Server) CloseWindow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, id)
}

// WindowList returns the ids of every currently-open window in map
// iteration order, since creation order is not tracked; the
// get-window-list verb only promises a complete listing, not an order.
func (s *Server) WindowList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.windows))
	for id := range s.windows {
		ids = append(ids, id)
	}
	return ids
}

// windowsIn returns every WindowState currently showing dir.
func (s *Server) windowsIn(dir string) []*WindowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []*WindowState
	for _, w := range s.windows {
		if w.Dir == dir {
			matches = append(matches, w)
		}
	}
	return matches
}

// trackTask records t as the in-flight maintenance operation for key (its
// target directory), so another connection can poll its progress or
// cancel it via the --render-progress/--render-cancel verbs.
func (s *Server) trackTask(key string, t *maintenance.Task) {
	s.mu.Lock()
	s.activeTasks[key] = t
	s.mu.Unlock()
}

// untrackTask discards the in-flight task recorded for key, once it's
// done.
func (s *Server) untrackTask(key string) {
	s.mu.Lock()
	delete(s.activeTasks, key)
	s.mu.Unlock()
}

// activeTask looks up the in-flight task for key, if any.
func (s *Server) activeTask(key string) (*maintenance.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.activeTasks[key]
	return t, ok
}

// QuitRequested reports whether a client has asked the server to quit.
func (s *Server) QuitRequested() <-chan struct{} {
	return s.quitCh
}

func (s *Server) requestQuit() {
	if atomic.CompareAndSwapInt32(&s.quitRequested, 0, 1) {
		close(s.quitCh)
	}
}

// Serve accepts and services connections until the listener is closed.
// Each connection is handled on its own goroutine, gated by a bounded
// slot pool; a connection that arrives with no free slot is closed
// immediately rather than queued.
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener
	for {
		netConn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quitCh:
				return nil
			default:
			}
			return gqerrors.Wrap(gqerrors.Io, "accept remote connection", err)
		}

		select {
		case s.clientSlots <- struct{}{}:
			go s.serveClient(netConn)
		default:
			must.Close(netConn, s.Logger)
		}
	}
}

func (s *Server) serveClient(netConn net.Conn) {
	defer func() { <-s.clientSlots }()
	defer must.Close(netConn, s.Logger)

	c := newConn(netConn)
	for {
		text, err := c.readCommand()
		if err != nil {
			return
		}
		if text == "" {
			continue
		}
		s.dispatch(c, text)
	}
}

// dispatch parses and runs one command, writing its response (including
// the terminator) before returning.
func (s *Server) dispatch(c *conn, text string) {
	if id, ok := parseWindowBinding(text); ok {
		c.windowID = id
		c.writeTerminator()
		return
	}

	name, arg, hasArg := strings.Cut(text, ":")
	if !hasArg {
		name, arg = text, ""
	}

	v, ok := findVerb(name)
	if !ok {
		c.writeLine("unknown command: " + name)
		c.writeTerminator()
		return
	}
	if v.needsArgument && arg == "" {
		c.writeLine("command requires an argument: " + name)
		c.writeTerminator()
		return
	}

	req := &request{
		server: s,
		conn:   c,
		window: s.window(c.windowID),
		arg:    arg,
	}
	if err := v.handler(req); err != nil {
		c.writeLine(err.Error())
	}
	c.writeTerminator()
}

// parseWindowBinding recognizes the sticky --id:NAME prefix command,
// which never itself produces a handler call.
func parseWindowBinding(text string) (string, bool) {
	const prefix = "--id:"
	if strings.HasPrefix(text, prefix) {
		return strings.TrimPrefix(text, prefix), true
	}
	return "", false
}

// request bundles everything a handler needs: the shared server, the
// connection to write a response on, the bound window, and the parsed
// argument string.
type request struct {
	server *Server
	conn   *conn
	window *WindowState
	arg    string
}
