package main

import (
	"os"

	"github.com/ignius299792458/rv-react/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
