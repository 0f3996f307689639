// Command globe runs the market-session globe and its supporting tools.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
