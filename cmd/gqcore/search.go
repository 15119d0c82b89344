package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gqcore/gqcore/cmd"
	"github.com/gqcore/gqcore/pkg/filedata"
	"github.com/gqcore/gqcore/pkg/search"
)

func searchMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errors.New("expected exactly one directory argument")
	}
	root := arguments[0]

	query := &search.Query{Recursive: searchConfiguration.recursive}
	if searchConfiguration.name != "" {
		query.Name = search.NamePredicate{Enabled: true, Pattern: searchConfiguration.name}
	}
	if err := query.Compile(); err != nil {
		return errors.Wrap(err, "invalid query")
	}

	registry := filedata.NewRegistry(nil, nil, nil)
	cfg := search.Config{
		Registry: registry,
		OnResults: func(results []search.MatchResult) {
			for _, r := range results {
				fmt.Println(r.Path)
			}
		},
	}

	engine := search.NewDirectory(cfg, query, root)
	search.RunToCompletion(engine, 1<<20)

	return nil
}

var searchCommand = &cobra.Command{
	Use:   "search DIRECTORY",
	Short: "Searches a directory for files matching a query",
	Run:   cmd.Mainify(searchMain),
}

var searchConfiguration struct {
	name      string
	recursive bool
}

func init() {
	flags := searchCommand.Flags()
	flags.SortFlags = false
	flags.StringVar(&searchConfiguration.name, "name", "", "Match files whose name matches this pattern")
	flags.BoolVarP(&searchConfiguration.recursive, "recursive", "r", false, "Descend into subdirectories")
	flags.BoolP("help", "h", false, "Show help information")
}
