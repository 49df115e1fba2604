package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-curate/pkg/curate"
	"github.com/askiada/go-curate/pkg/curate/model"
	"github.com/askiada/go-curate/pkg/curate/steps"
)

func newWorkflowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Build and verify workflow files",
	}
	cmd.AddCommand(newWorkflowBuildCommand(ctx))
	cmd.AddCommand(newWorkflowVerifyCommand(ctx))
	return cmd
}

func newWorkflowBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		output      string
		name        string
		description string
		specs       []string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble steps into a workflow file",
		Example: `  chemcurate workflow build -o wf.yaml --name demo \
    --step RemoveDuplicates --step 'FilterMW min=20 max=500'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(output) == "" {
				return errors.New("an output file is required (-o)")
			}
			if len(specs) == 0 {
				return errors.New("at least one --step is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			built := make([]curate.Step, 0, len(specs))
			for _, spec := range specs {
				stepName, params, err := parseStepSpec(spec)
				if err != nil {
					return err
				}
				step, err := steps.Default.Build(stepName, params)
				if err != nil {
					return err
				}
				built = append(built, step)
			}

			opts := []curate.Option{
				curate.WithName(name),
				curate.WithDescription(description),
				curate.WithLogger(logger),
			}
			if cfg.Engine.SuppressWarnings {
				opts = append(opts, curate.SuppressWarnings())
			}
			wf, err := curate.New(steps.Default, built, opts...)
			if err != nil {
				return err
			}
			if err := wf.SaveFile(output); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s with %d steps\n", output, wf.NumSteps())
			fmt.Fprintln(cmd.OutOrStdout(), wf.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Workflow file to write")
	cmd.Flags().StringVar(&name, "name", "", "Workflow name")
	cmd.Flags().StringVar(&description, "description", "", "Workflow description")
	cmd.Flags().StringArrayVar(&specs, "step", nil, "Step as 'Name key=value ...' (repeatable)")
	return cmd
}

// parseStepSpec splits "FilterMW min=20 max=500" into a name and parameters.
// Values are read as YAML scalars so numbers and booleans keep their type.
func parseStepSpec(spec string) (string, model.Params, error) {
	fields := strings.Fields(spec)
	if len(fields) == 0 {
		return "", nil, errors.New("empty step")
	}
	name := fields[0]
	if len(fields) == 1 {
		return name, nil, nil
	}
	params := make(model.Params, len(fields)-1)
	for _, field := range fields[1:] {
		key, raw, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return "", nil, errors.Errorf("step %s: parameter %q is not key=value", name, field)
		}
		if _, dup := params[key]; dup {
			return "", nil, errors.Errorf("step %s: parameter %s given twice", name, key)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return "", nil, errors.Wrapf(err, "step %s: parameter %s", name, key)
		}
		params[key] = value
	}
	return name, params, nil
}

func newWorkflowVerifyCommand(ctx *commandContext) *cobra.Command {
	var unsafe bool

	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Check a workflow file against the current step implementations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			opts := []curate.Option{curate.WithLogger(logger), curate.SuppressWarnings()}
			if unsafe {
				opts = append(opts, curate.Unsafe())
			}

			wf, err := curate.LoadFile(args[0], steps.Default, opts...)
			var verr *curate.VerificationError
			if errors.As(err, &verr) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s mismatch\n", args[0], verr.Category)
				fmt.Fprintf(cmd.OutOrStdout(), "  recorded: %s\n  current:  %s\n", verr.Expected, verr.Actual)
				return err
			}
			if err != nil {
				return err
			}

			if wf.Trust() == curate.Untrusted {
				fmt.Fprintln(cmd.ErrOrStderr(), renderUntrustedBanner(shouldColorize(cmd.ErrOrStderr())))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], wf.Trust())
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Steps", "Workflow hash", "Source hash"},
				[][]string{{wf.Name(), strconv.Itoa(wf.NumSteps()), wf.WorkflowHash(), wf.SourceHash()}},
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unsafe, "unsafe", false, "Skip verification; the workflow is loaded as untrusted")
	return cmd
}
