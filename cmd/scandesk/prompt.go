package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errNotConfirmed = errors.New("aborted")

// confirm asks a y/N question on the command's input. Without a terminal
// the answer must come from --yes.
func confirm(cmd *cobra.Command, question string, yes bool) error {
	if yes {
		return nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("%s: stdin is not a terminal, pass --yes to confirm", question)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errNotConfirmed
	}
}
