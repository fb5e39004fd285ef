// Command sonido-voz enrolls speakers into voice models and speaks text with
// them.
//
// Usage:
//
//	sonido-voz [flags] <command> [args]
//
// Commands:
//
//	enroll      - create voice models from recordings
//	list        - list stored voice models
//	show        - print a stored voice model
//	synthesize  - speak text with a stored voice
//	feedback    - blend listener preferences into a stored voice
//	delete      - remove a stored voice model
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-voz/cmd/sonido-voz/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
