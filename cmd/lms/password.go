package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/trailofbits/hsslms-go/lms/common"
)

// readPassword returns the password supplied with -p, or prompts once on
// the terminal if it was omitted.
func readPassword(flagValue string) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, common.WrapFailure(err, "failed to read password")
	}
	return pw, nil
}

// readPasswordTwice is used by key-gen: the password is entered twice and
// must match, unless it was already supplied with -p.
func readPasswordTwice(flagValue string) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw1, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, common.WrapFailure(err, "failed to read password")
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	pw2, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, common.WrapFailure(err, "failed to read password")
	}
	if string(pw1) != string(pw2) {
		return nil, common.NewFailure("passwords do not match")
	}
	return pw1, nil
}

// readMessage reads the message to sign or verify from path, or from
// standard input when path is "--".
func readMessage(path string) ([]byte, error) {
	if path == "--" {
		msg, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return nil, common.WrapFailure(err, "failed to read message from standard input")
		}
		return msg, nil
	}
	msg, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapFailure(err, "failed to read message file %s", path)
	}
	return msg, nil
}
