package main

import (
	"os"

	"github.com/smallbiznis/shipdesk/cmd/shipdesk/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
