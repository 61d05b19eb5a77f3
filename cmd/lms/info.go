package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/trailofbits/hsslms-go/lms/common"
	"github.com/trailofbits/hsslms-go/lms/hss"
	"github.com/trailofbits/hsslms-go/lms/persist"
)

var skInfoCommand = &cli.Command{
	Name:  "sk-info",
	Usage: "print metadata about a private key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "k", Required: true, Usage: "path to the private key"},
		&cli.StringFlag{Name: "p", Usage: "password (prompted once if omitted)"},
	},
	Action: func(c *cli.Context) error {
		password, err := readPassword(c.String("p"))
		if err != nil {
			return err
		}

		container, err := persist.OpenReadOnly(c.String("k"), password)
		if err != nil {
			return err
		}
		defer container.Close()

		pub := container.Public()
		fmt.Printf("levels: %d\n", pub.L)
		fmt.Printf("checkpoint frequency: %d\n", container.Frequency)
		return nil
	},
}

var vkInfoCommand = &cli.Command{
	Name:  "vk-info",
	Usage: "print metadata about a public key",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "k", Required: true, Usage: "path to the public key"},
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
		fmt.Printf("levels: %d\n", pub.L)
		fmt.Printf("encoded length: %d bytes\n", len(pub.ToBytes()))
		return nil
	},
}
