// pagemirror mirrors a single web page and its same-origin static assets to
// disk, rewriting every reference so the copy opens offline in a browser.
package main

import (
	"fmt"
	"os"

	"pagemirror/cmd"
	"pagemirror/internal/pkg/log"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Stop()
		os.Exit(1)
	}

	log.Stop()
}
