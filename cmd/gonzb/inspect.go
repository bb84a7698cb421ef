package main

import (
	"fmt"
	"path/filepath"

	"github.com/datallboy/gonzb-assembler/internal/archive"
	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/datallboy/gonzb-assembler/internal/inspector"
	"github.com/spf13/cobra"
)

func buildInspectCommand() *cobra.Command {
	var passwords []string

	cmd := &cobra.Command{
		Use:   "inspect ARCHIVE",
		Short: "Check a RAR archive for encryption and unwanted extensions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, false)
			if err != nil {
				return err
			}

			opener, err := archive.Detect()
			if err != nil {
				return err
			}

			path := args[0]
			job := domain.NewJob("inspect", filepath.Base(path))
			job.Passwords = passwords

			insp := inspector.New(inspector.FromConfig(cfg.Assembly), opener, log)
			encrypted, unwanted := insp.Inspect(cmd.Context(), job, path)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "encrypted: %t\n", encrypted)
			if job.Encrypted == domain.EncryptionPasswordRecovered {
				fmt.Fprintln(out, "password: recovered")
			}
			if unwanted != "" {
				fmt.Fprintf(out, "unwanted: %s\n", unwanted)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&passwords, "password", "p", nil, "password to try (repeatable)")
	return cmd
}
