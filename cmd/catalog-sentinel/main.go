package main

import (
	"context"
	"os"

	"github.com/strahe/catalog-sentinel/pkg/log"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "catalog-sentinel",
		Usage: "Turn data catalog change events into readable notifications",
		Commands: []*cli.Command{
			runCommand(),
			formatCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}
