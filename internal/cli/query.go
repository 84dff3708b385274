package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesprial/migas-go/internal/query"
	"github.com/jamesprial/migas-go/internal/render"
)

// ErrInvalidRequest is returned by query --check when the built request does
// not parse.
var ErrInvalidRequest = errors.New("invalid request")

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		params []string
		check  bool
	)

	cmd := &cobra.Command{
		Use:   "query <operation>",
		Short: "Print the request an operation would send, without sending it",
		Long: `Build the GraphQL request for a built-in operation (add_breadcrumb,
check_project, get_usage, add_project) and print it. Operations that carry the
detected context include it, exactly as a real call would.

With --check the request is also parsed as a GraphQL document.`,
		Example: `  migas query get_usage --param project=nipreps/fmriprep --param start=2024-01-01
  migas query add_breadcrumb --param project=a/b --param project_version=1.0 --check -f json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := lookupOperation(args[0])
			if err != nil {
				return err
			}
			values, err := parseParams(params)
			if err != nil {
				return err
			}

			text := opts.client().Build(op, values)

			var checkErr error
			if check {
				checkErr = query.Check(text)
			}

			if opts.format == render.FormatText {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			} else {
				res := map[string]any{"operation": op.Name, "query": text}
				if check {
					res["valid"] = checkErr == nil
					if checkErr != nil {
						res["error"] = checkErr.Error()
					}
				}
				if err := printResult(cmd, opts, res); err != nil {
					return err
				}
			}

			if checkErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), checkErr)
				return ErrInvalidRequest
			}
			return nil
		},
	}
	addParamFlag(cmd, &params)
	cmd.Flags().BoolVar(&check, "check", false, "Parse the request as GraphQL and fail if it is malformed")

	return cmd
}
