// Package editorlist implements the editor/desktop-file collaborator:
// parsing .desktop files for external editor commands and turning one
// into a runnable command for a given set of files. It depends on
// nothing the core doesn't already have loaded — list, lookup by key,
// and "start editor from filelist" are the only operations the core
// needs.
package editorlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gqcore/gqcore/pkg/gqerrors"
)

// Action is one parsed external-editor entry.
type Action struct {
	Key      string // derived from the .desktop file's basename
	Name     string
	Icon     string
	MenuPath string
	Exec     string
}

// List holds every Action discovered under one or more scanned
// directories, indexed by Key for lookup.
type List struct {
	actions map[string]Action
	order   []string
}

// New creates an empty List.
func New() *List {
	return &List{actions: make(map[string]Action)}
}

// Load scans dir for *.desktop files and adds each successfully parsed
// one to the list, keyed by its basename without extension. A directory
// that doesn't exist is not an error: most of the standard XDG
// application-directory candidates won't exist on a given system.
func (l *List) Load(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return gqerrors.Wrap(gqerrors.Io, fmt.Sprintf("read editor directory '%s'", dir), err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".desktop") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		action, err := parseDesktopFile(path)
		if err != nil {
			continue
		}
		action.Key = strings.TrimSuffix(entry.Name(), ".desktop")
		if _, exists := l.actions[action.Key]; !exists {
			l.order = append(l.order, action.Key)
		}
		l.actions[action.Key] = action
	}
	return nil
}

// List returns every known Action, in load order.
func (l *List) List() []Action {
	result := make([]Action, 0, len(l.order))
	for _, key := range l.order {
		result = append(result, l.actions[key])
	}
	return result
}

// Lookup finds an Action by key.
func (l *List) Lookup(key string) (Action, bool) {
	action, ok := l.actions[key]
	return action, ok
}

// parseDesktopFile reads the [Desktop Entry] group of a .desktop file,
// ini-style key=value lines, the same line-oriented shape the metadata
// sidecar format uses.
func parseDesktopFile(path string) (Action, error) {
	f, err := os.Open(path)
	if err != nil {
		return Action{}, err
	}
	defer f.Close()

	var action Action
	inEntryGroup := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inEntryGroup = line == "[Desktop Entry]"
			continue
		}
		if !inEntryGroup {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "Name":
			action.Name = value
		case "Icon":
			action.Icon = value
		case "Categories":
			action.MenuPath = value
		case "Exec":
			action.Exec = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Action{}, err
	}
	if action.Exec == "" {
		return Action{}, gqerrors.New(gqerrors.ProtocolError, "desktop file has no Exec line")
	}
	return action, nil
}
