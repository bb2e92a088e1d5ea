// Command devdata creates synthetic pager databases for development.
package main

import (
	"os"

	"github.com/pokesag/pokesag/tools/devdata/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
