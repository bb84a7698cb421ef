package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/datallboy/gonzb-assembler/internal/par2"
	"github.com/spf13/cobra"
)

func buildPar2Command() *cobra.Command {
	return &cobra.Command{
		Use:   "par2 FILE",
		Short: "Print the filename and MD5 table of a PAR2 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			table16k := make(par2.Table16k)
			table, err := par2.Parse(f, table16k)
			if err != nil {
				return err
			}
			if len(table) == 0 {
				return fmt.Errorf("%s holds no file descriptions", args[0])
			}

			names := make([]string, 0, len(table))
			for name := range table {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s  %s\n", table[name], name)
			}
			return nil
		},
	}
}
