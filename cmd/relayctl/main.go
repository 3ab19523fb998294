// Command relayctl is the operator CLI of the document relay.
package main

import (
	"fmt"
	"os"
)

func main() {
	app := newCLIApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
