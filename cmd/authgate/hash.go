// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/authgate/internal/auth"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	var verify string

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the argon2id hash of a password",
		Long: `Print the argon2id hash of a password, for seeding principals by hand.
The password is read from the first line of stdin when not given as an
argument. With --verify, check the password against an existing hash instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordInput(cmd, args)
			if err != nil {
				return err
			}

			hasher := auth.NewArgon2idHasher()
			if verify != "" {
				if !hasher.Verify(password, verify) {
					return oops.Code("PASSWORD_MISMATCH").Errorf("password does not match hash")
				}
				cmd.Println("match")
				if hasher.NeedsUpgrade(verify) {
					cmd.Println("hash uses a legacy algorithm and will be upgraded on next login")
				}
				return nil
			}

			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			// stdout, so the hash can be captured by scripts.
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&verify, "verify", "", "encoded hash to check the password against")
	return cmd
}

func passwordInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", oops.Code("PASSWORD_INPUT_FAILED").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
