// Command tdnjit drives the method translator from the command line, for
// smoke-testing and for dumping the IR of sample methods without a full
// assembly loader. Grounded on the teacher's cmd/dwscript entry point.
package main

import (
	"fmt"
	"os"

	"github.com/TomatOrg/tinydotnet/cmd/tdnjit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
