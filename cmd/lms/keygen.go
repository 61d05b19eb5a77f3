package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/trailofbits/hsslms-go/lms/hss"
	"github.com/trailofbits/hsslms-go/lms/persist"
)

// defaultFrequency is the conservative default named in spec: frequency=1
// makes skip-ahead recovery a no-op.
const defaultFrequency = 1

var keyGenCommand = &cli.Command{
	Name:  "key-gen",
	Usage: "generate a new HSS private key and its matching public key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "lmots", Required: true, Usage: "LM-OTS parameter set, e.g. LMOTS_SHA256_N32_W8"},
		&cli.StringSliceFlag{Name: "lms", Required: true, Usage: "one LMS parameter set per HSS level, e.g. LMS_SHA256_M32_H5"},
		&cli.StringFlag{Name: "o", Required: true, Usage: "output path for the private key"},
		&cli.StringFlag{Name: "p", Usage: "password (prompted twice if omitted)"},
		&cli.IntFlag{Name: "c", Value: 0, Usage: "worker threads for tree generation (0 = GOMAXPROCS)"},
	},
	Action: func(c *cli.Context) error {
		privPath := c.String("o")
		pubPath := privPath + ".pub"
		if _, err := os.Stat(privPath); err == nil {
			return fmt.Errorf("%s already exists", privPath)
		}
		if _, err := os.Stat(pubPath); err == nil {
			return fmt.Errorf("%s already exists", pubPath)
		}

		otstc, err := parseLmotsType(c.String("lmots"))
		if err != nil {
			return err
		}
		lmsNames := c.StringSlice("lms")
		if len(lmsNames) == 0 {
			return fmt.Errorf("at least one --lms level is required")
		}
		levels := make([]hss.LevelParam, len(lmsNames))
		for i, name := range lmsNames {
			lmstc, err := parseLmsType(name)
			if err != nil {
				return err
			}
			levels[i] = hss.LevelParam{LmsType: lmstc, OtsType: otstc}
		}

		threads := c.Int("c")
		if threads <= 0 {
			threads = runtime.GOMAXPROCS(0)
		}

		password, err := readPasswordTwice(c.String("p"))
		if err != nil {
			return err
		}

		priv, err := hss.GenerateHssPrivateKey(levels, threads)
		if err != nil {
			return err
		}
		pub := priv.Public()

		container, err := persist.Create(privPath, defaultFrequency, password, priv)
		if err != nil {
			return err
		}
		defer container.Close()

		if err := os.WriteFile(pubPath, pub.ToBytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", pubPath, err)
		}

		fmt.Printf("wrote %s and %s\n", privPath, pubPath)
		return nil
	},
}

var pubkeyGenCommand = &cli.Command{
	Name:  "pubkey-gen",
	Usage: "extract the public key from an existing private key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "i", Required: true, Usage: "path to the private key"},
		&cli.StringFlag{Name: "o", Usage: "output path for the public key (default: <i>.pub)"},
		&cli.StringFlag{Name: "p", Usage: "password (prompted once if omitted)"},
	},
	Action: func(c *cli.Context) error {
		inPath := c.String("i")
		outPath := c.String("o")
		if outPath == "" {
			outPath = inPath + ".pub"
		}

		password, err := readPassword(c.String("p"))
		if err != nil {
			return err
		}

		container, err := persist.Open(inPath, password)
		if err != nil {
			return err
		}
		defer container.Close()

		pub := container.Public()
		if err := os.WriteFile(outPath, pub.ToBytes(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	},
}
