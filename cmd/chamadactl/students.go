package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/backend"
)

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "List enrolled students",
	Args:  cobra.NoArgs,
	RunE:  runStudents,
}

func runStudents(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}
	st, err := backend.Open(cmd.Context(), *cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	students, err := st.ListStudents(cmd.Context())
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTREAM\tENCODING")
	for _, s := range students {
		enc := "no"
		if s.HasEncoding() {
			enc = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Stream, enc)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d students\n", len(students))
	return nil
}
