// Command enginectl starts and inspects hierarchical state machines.
package main

import "github.com/comalice/rafcore/internal/cli"

func main() {
	cli.Execute()
}
