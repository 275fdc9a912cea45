package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// passphrase returns the export passphrase from PALMSIM_EXPORT_PASSPHRASE
// (via config) or, failing that, prompts on the terminal.
func (a *app) passphrase(prompt io.Writer, confirm bool) (string, error) {
	if a.cfg != nil && a.cfg.ExportPassphrase != "" {
		return a.cfg.ExportPassphrase, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no passphrase: set PALMSIM_EXPORT_PASSPHRASE or run from a terminal")
	}

	fmt.Fprint(prompt, "Passphrase: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	pass := strings.TrimSpace(string(first))

	if confirm {
		fmt.Fprint(prompt, "Confirm passphrase: ")
		second, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		if strings.TrimSpace(string(second)) != pass {
			return "", errors.New("passphrases do not match")
		}
	}
	return pass, nil
}
