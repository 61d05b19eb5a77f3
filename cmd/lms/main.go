// Command lms is an operational CLI over lms/hss and lms/persist: it
// generates keys, signs and verifies messages, and reports key metadata.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/trailofbits/hsslms-go/lms/common"
)

func main() {
	app := &cli.App{
		Name:  "lms",
		Usage: "Leighton-Micali hash-based signatures",
		Commands: []*cli.Command{
			keyGenCommand,
			pubkeyGenCommand,
			signCommand,
			verifyCommand,
			skInfoCommand,
			vkInfoCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		reportAndExit(err)
	}
}

// reportAndExit implements spec's CLI error surface: INVALID prints a
// fixed message, FAILURE prints its own, both exit 1.
func reportAndExit(err error) {
	if common.IsInvalid(err) {
		fmt.Fprintln(os.Stderr, "Signature is invalid.")
	} else {
		fmt.Fprintln(os.Stderr, err.Error())
	}
	os.Exit(1)
}
