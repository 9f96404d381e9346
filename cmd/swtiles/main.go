package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&buildCmd{}, "")
	subcommands.Register(&inspectCmd{}, "")
	subcommands.Register(&getCmd{}, "")
	subcommands.Register(&lsCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
