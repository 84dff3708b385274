package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesprial/migas-go/internal/query"
	"github.com/jamesprial/migas-go/internal/render"
)

func printResult(cmd *cobra.Command, opts *rootOptions, res map[string]any) error {
	out, err := render.Result(res, opts.format)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// flagValues copies the string flags that were set into values under their
// parameter names.
func flagValues(cmd *cobra.Command, values query.Values, flagToParam map[string]string) {
	for flag, param := range flagToParam {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		if v, err := cmd.Flags().GetString(flag); err == nil {
			values[param] = v
		}
	}
}

func newBreadcrumbCmd(opts *rootOptions) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "breadcrumb <project> <version>",
		Short: "Record one usage of a project version",
		Long: `Send an add_breadcrumb mutation for project at version. Language, platform,
container, CI and user/session identifiers are detected and sent along;
any of them can be overridden with --param.`,
		Example: `  migas breadcrumb nipreps/fmriprep 24.0.0
  migas breadcrumb nipreps/fmriprep 24.0.0 --status F --error-type KeyError --error-desc "missing key"
  migas breadcrumb nipreps/fmriprep 24.0.0 --param ctx.user_type=bot`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			flagValues(cmd, values, map[string]string{
				"status":      "status",
				"status-desc": "status_desc",
				"error-type":  "error_type",
				"error-desc":  "error_desc",
				"user-type":   "user_type",
			})
			res := opts.client().AddBreadcrumb(cmd.Context(), args[0], args[1], values)
			return printResult(cmd, opts, res)
		},
	}

	cmd.Flags().String("status", "", "Process status: R, C, F or S")
	cmd.Flags().String("status-desc", "", "Status description")
	cmd.Flags().String("error-type", "", "Error class")
	cmd.Flags().String("error-desc", "", "Error description")
	cmd.Flags().String("user-type", "", "User type: general or bot")
	addParamFlag(cmd, &params)

	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "check <project> <version>",
		Short: "Check a version against the latest release",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			res := opts.client().CheckProject(cmd.Context(), args[0], args[1], values)
			return printResult(cmd, opts, res)
		},
	}
	addParamFlag(cmd, &params)

	return cmd
}

func newUsageCmd(opts *rootOptions) *cobra.Command {
	var (
		end    string
		unique bool
	)

	cmd := &cobra.Command{
		Use:     "usage <project> <start>",
		Short:   "Count usage of a project since start",
		Example: `  migas usage nipreps/fmriprep 2024-01-01 --end 2024-06-30 --unique`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := query.Values{}
			if end != "" {
				values["end"] = end
			}
			if cmd.Flags().Changed("unique") {
				values["unique"] = unique
			}
			res := opts.client().GetUsage(cmd.Context(), args[0], args[1], values)
			return printResult(cmd, opts, res)
		},
	}
	cmd.Flags().StringVar(&end, "end", "", "End of the range (default: now)")
	cmd.Flags().BoolVar(&unique, "unique", false, "Count unique users only")

	return cmd
}

func newAddProjectCmd(opts *rootOptions) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "add-project <project> <version>",
		Short: "Record usage and fetch the latest version in one call (deprecated)",
		Long: `Send the legacy add_project mutation. Deprecated: use breadcrumb and
check instead. A warning is logged on use.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}
			res := opts.client().AddProject(cmd.Context(), args[0], args[1], values)
			return printResult(cmd, opts, res)
		},
	}
	addParamFlag(cmd, &params)

	return cmd
}
