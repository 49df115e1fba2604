package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/askiada/go-curate/pkg/curate/steps"
)

func newStepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "steps",
		Short:       "List the steps a workflow can use",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Kind", "Rank", "Loadable", "Description"},
				stepRows(),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

// stepRows describes every catalog entry. Steps that need parameters cannot
// be built for display and only show their name.
func stepRows() [][]string {
	names := steps.Default.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		loadable := steps.Default.Loadable(name)
		step, err := steps.Default.Build(name, nil)
		if err != nil {
			rows = append(rows, []string{name, "-", "-", yesNo(loadable), "(requires parameters)"})
			continue
		}
		rows = append(rows, []string{
			name,
			step.Kind().String(),
			strconv.Itoa(int(step.Rank())),
			yesNo(loadable),
			step.Description(),
		})
	}
	return rows
}
