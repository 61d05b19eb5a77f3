package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/hss"
	"github.com/trailofbits/hsslms-go/lms/persist"
)

var signCommand = &cli.Command{
	Name:  "sign",
	Usage: "sign a message with a persisted HSS private key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "k", Required: true, Usage: "path to the private key"},
		&cli.StringFlag{Name: "m", Required: true, Usage: "message file, or -- for standard input"},
		&cli.StringFlag{Name: "s", Required: true, Usage: "output path for the signature"},
		&cli.StringFlag{Name: "p", Usage: "password (prompted once if omitted)"},
	},
	Action: func(c *cli.Context) error {
		password, err := readPassword(c.String("p"))
		if err != nil {
			return err
		}

		container, err := persist.Open(c.String("k"), password)
		if err != nil {
			return err
		}
		defer container.Close()

		msg, err := readMessage(c.String("m"))
		if err != nil {
			return err
		}

		sig, err := container.Sign(msg, nil)
		if err != nil {
			return err
		}
		sigBytes, err := sig.ToBytes()
		if err != nil {
			return err
		}
		if err := os.WriteFile(c.String("s"), sigBytes, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.String("s"), err)
		}
		return nil
	},
}

var verifyCommand = &cli.Command{
	Name:  "verify",
	Usage: "verify a message against a signature and public key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "k", Required: true, Usage: "path to the public key"},
		&cli.StringFlag{Name: "m", Required: true, Usage: "message file, or -- for standard input"},
		&cli.StringFlag{Name: "s", Required: true, Usage: "path to the signature"},
	},
	Action: func(c *cli.Context) error {
		pubBytes, err := os.ReadFile(c.String("k"))
		if err != nil {
			return common.WrapFailure(err, "failed to read public key %s", c.String("k"))
		}
		pub, err := hss.HssPublicKeyFromBytes(pubBytes)
		if err != nil {
			return err
		}

		msg, err := readMessage(c.String("m"))
		if err != nil {
			return err
		}

		sigBytes, err := os.ReadFile(c.String("s"))
		if err != nil {
			return common.WrapFailure(err, "failed to read signature %s", c.String("s"))
		}
		sig, err := hss.HssSignatureFromBytes(sigBytes)
		if err != nil {
			return err
		}

		if !pub.Verify(msg, sig) {
			return common.NewInvalid("verify: signature does not validate")
		}
		fmt.Println("Signature is valid.")
		return nil
	},
}
