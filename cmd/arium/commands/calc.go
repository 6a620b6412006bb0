package commands

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// NewCalculationsCommand creates the calculations command group.
func NewCalculationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calc",
		Aliases: []string{"calculations"},
		Short:   "Drive calculations",
		Long:    "Poll calculation jobs and download their resources",
	}

	cmd.AddCommand(newCalcPollCommand())
	cmd.AddCommand(newCalcResourcesCommand())
	cmd.AddCommand(newCalcFetchCommand())

	return cmd
}

func calcRun(cmd *cobra.Command, run func(calculations arium.CalculationsClient) error) error {
	client, err := createClient(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return run(client.Calculations())
}

func newCalcPollCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "poll ENDPOINT",
		Short: "Wait for a calculation to finish",
		Long:  "Re-issue GET on the endpoint until it stops answering 202 Accepted and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return calcRun(cmd, func(calculations arium.CalculationsClient) error {
				content, err := calculations.Poll(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to poll calculation: %w", err)
				}

				return renderContent(cmd.OutOrStdout(), content)
			})
		},
	}
}

// fetchFlags are shared by resources and fetch.
type fetchFlags struct {
	raw       bool
	json      bool
	delimiter string
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.raw, "raw", false, "write the bytes unparsed")
	cmd.Flags().BoolVar(&f.json, "json", false, "decode the content instead of parsing CSV rows")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ",", "CSV field delimiter")
}

func (f *fetchFlags) options() (*arium.FetchOptions, error) {
	delimiter, size := utf8.DecodeRuneInString(f.delimiter)
	if size == 0 || size != len(f.delimiter) {
		return nil, fmt.Errorf("%w: %q", constants.ErrInvalidDelimiter, f.delimiter)
	}

	return &arium.FetchOptions{
		CSV:       !f.raw && !f.json,
		Raw:       f.raw,
		Delimiter: delimiter,
	}, nil
}

func newCalcResourcesCommand() *cobra.Command {
	flags := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "resources CALCULATION_ID ENDPOINT",
		Short: "Download the resources of a calculation",
		Long: `Download every resource of a calculation. ENDPOINT is the resource listing
path and may contain {calculations_id}, which is replaced by CALCULATION_ID.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // id and endpoint
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			return calcRun(cmd, func(calculations arium.CalculationsClient) error {
				resources, err := calculations.Resources(cmd.Context(), args[0], args[1], opts)
				if err != nil {
					return fmt.Errorf("failed to list resources: %w", err)
				}

				out := cmd.OutOrStdout()

				for resources.Next() {
					_, _ = fmt.Fprintf(out, "# %s\n", resources.Filename())

					if rows := resources.Rows(); rows != nil {
						err = writeRows(out, rows)
					} else {
						err = renderContent(out, resources.Content())
					}

					if err != nil {
						return err
					}
				}

				err = resources.Err()
				if err != nil {
					return fmt.Errorf("failed to download resource: %w", err)
				}

				return nil
			})
		},
	}

	flags.register(cmd)

	return cmd
}

func newCalcFetchCommand() *cobra.Command {
	flags := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch URL",
		Short: "Download content from an absolute URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			return calcRun(cmd, func(calculations arium.CalculationsClient) error {
				rows, content, err := calculations.Fetch(cmd.Context(), args[0], opts)
				if err != nil {
					return fmt.Errorf("failed to fetch: %w", err)
				}

				if rows != nil {
					return writeRows(cmd.OutOrStdout(), rows)
				}

				return renderContent(cmd.OutOrStdout(), content)
			})
		},
	}

	flags.register(cmd)

	return cmd
}

// writeRows drains a row iterator into a table, using the first row as
// header.
func writeRows(w io.Writer, rows arium.RowIterator) error {
	table := tablewriter.NewWriter(w)
	header := true

	for rows.Next() {
		if header {
			table.Header(cells(rows.Row())...)

			header = false

			continue
		}

		_ = table.Append(cells(rows.Row())...)
	}

	err := rows.Err()
	if err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
