package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gqcore/gqcore/cmd"
	"github.com/gqcore/gqcore/pkg/config"
	"github.com/gqcore/gqcore/pkg/remote"
)

// remoteDialTimeout bounds how long the client waits to connect to a
// running server before giving up with a clear "is it running?" error.
const remoteDialTimeout = 2 * time.Second

func remoteMain(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		return errors.New("expected a remote command, e.g. 'gqcore remote --get-filelist'")
	}
	text := strings.Join(arguments, ":")

	socketPath := remoteConfiguration.socket
	if socketPath == "" {
		cfg, err := config.Load(mustConfigPath())
		if err == nil {
			socketPath = cfg.SocketPath()
		}
	}
	if socketPath == "" {
		path, err := remote.SocketPath()
		if err != nil {
			return errors.Wrap(err, "unable to determine remote socket path")
		}
		socketPath = path
	}

	conn, err := remote.DialTimeout(socketPath, remoteDialTimeout)
	if err != nil {
		return errors.Wrap(err, "unable to connect to gqcore server (is 'gqcore serve' running?)")
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(text + "<gq_end_of_command>\n")); err != nil {
		return errors.Wrap(err, "unable to send remote command")
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return errors.Wrap(err, "unable to read remote response")
		}
		if line == "<gq_end_of_command>\n" {
			return nil
		}
		fmt.Print(line)
	}
}

func mustConfigPath() string {
	path, err := config.Path()
	if err != nil {
		return ""
	}
	return path
}

var remoteCommand = &cobra.Command{
	Use:   "remote -- COMMAND[:ARGUMENT]",
	Short: "Sends a single command to a running gqcore server",
	Run:   cmd.Mainify(remoteMain),
}

var remoteConfiguration struct {
	socket string
}

func init() {
	flags := remoteCommand.Flags()
	flags.SortFlags = false
	flags.StringVar(&remoteConfiguration.socket, "socket", "", "Override the remote-control socket path")
	flags.BoolP("help", "h", false, "Show help information")
}
