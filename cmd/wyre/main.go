// Command wyre runs the example designs bundled with the toolkit,
// simulating them for a number of cycles and optionally recording a signal
// trace database.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/wyrelab/wyre/cmd/wyre/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
