// Command xcrawl drives the X/Twitter public-post search crawler: it
// signs requests with a reconstructed transaction ID, manages a cookie
// session, paginates the SearchTimeline endpoint for each
// account/keyword pair, and streams matching posts to a JSONL run
// directory.
package main

import (
	"fmt"
	"os"

	"github.com/lattice-labs/xcrawl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xcrawl:", err)
		os.Exit(1)
	}
}
