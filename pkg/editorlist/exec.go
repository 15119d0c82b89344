package editorlist

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/gqcore/gqcore/pkg/gqerrors"
)

// StartEditor builds the command for the editor registered under key,
// substituting paths into its Exec field-code placeholders, and returns
// it unstarted so the caller controls when (and whether) it actually
// runs.
//
// Supported field codes: %f/%u (single file, the first of paths), %F/%U
// (all of paths, space-separated), %i (icon, passed as --icon NAME if
// set), %c (the editor's display name). Unrecognized codes are dropped,
// matching a desktop-file consumer that only implements what it needs.
func (l *List) StartEditor(key string, paths []string) (*exec.Cmd, error) {
	action, ok := l.Lookup(key)
	if !ok {
		return nil, gqerrors.New(gqerrors.NotFound, fmt.Sprintf("no editor registered for '%s'", key))
	}
	if len(paths) == 0 {
		return nil, gqerrors.New(gqerrors.ProtocolError, "no files given to start editor")
	}

	args := expandExec(action, paths)
	if len(args) == 0 {
		return nil, gqerrors.New(gqerrors.ProtocolError, fmt.Sprintf("editor '%s' has an empty command line", key))
	}
	return exec.Command(args[0], args[1:]...), nil
}

func expandExec(action Action, paths []string) []string {
	var out []string
	for _, field := range strings.Fields(action.Exec) {
		switch field {
		case "%f", "%u":
			out = append(out, paths[0])
		case "%F", "%U":
			out = append(out, paths...)
		case "%i":
			if action.Icon != "" {
				out = append(out, "--icon", action.Icon)
			}
		case "%c":
			out = append(out, action.Name)
		default:
			if len(field) == 2 && field[0] == '%' {
				continue
			}
			out = append(out, field)
		}
	}
	return out
}
