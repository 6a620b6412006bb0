package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// assetsRun opens a client for the selected collection and hands it to run.
func assetsRun(cmd *cobra.Command, run func(assets arium.AssetsClient) error) error {
	client, err := createClient(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	collection, _ := cmd.Flags().GetString("collection")

	return run(client.Assets(collection))
}

// NewAssetsCommand creates the assets command group.
func NewAssetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assets",
		Aliases: []string{"asset"},
		Short:   "Manage assets",
		Long:    "List, create and manage the versioned assets of a collection",
	}

	cmd.PersistentFlags().StringP("collection", "C", arium.CollectionPortfolios, "asset collection (portfolios, events, sizes, ...)")

	cmd.AddCommand(newAssetsListCommand())
	cmd.AddCommand(newAssetsGetCommand())
	cmd.AddCommand(newAssetsVersionsCommand())
	cmd.AddCommand(newAssetsCreateCommand())
	cmd.AddCommand(newAssetsRenameCommand())
	cmd.AddCommand(newAssetsCopyCommand())
	cmd.AddCommand(newAssetsDeleteCommand())
	cmd.AddCommand(newAssetsLockCommand(true))
	cmd.AddCommand(newAssetsLockCommand(false))
	cmd.AddCommand(newAssetsEmptyCommand())
	cmd.AddCommand(newAssetsDescriptionCommand())
	cmd.AddCommand(newAssetsSetDescriptionCommand())
	cmd.AddCommand(newAssetsPayloadDescriptionCommand())
	cmd.AddCommand(newAssetsSetPayloadDescriptionCommand())
	cmd.AddCommand(newAssetsDataCommand())
	cmd.AddCommand(newAssetsReportsCommand())
	cmd.AddCommand(newAssetsReportCommand())
	cmd.AddCommand(newAssetsImportCommand())
	cmd.AddCommand(newAssetsExportCommand())
	cmd.AddCommand(newAssetsCopyWorkspaceCommand())
	cmd.AddCommand(newAssetsPollCommand())

	return cmd
}

func newAssetsListCommand() *cobra.Command {
	var allVersions bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		Long:  "List the assets of the collection, latest versions only unless --all-versions is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				latest := !allVersions

				list, err := assets.List(cmd.Context(), &arium.ListOptions{Latest: &latest})
				if err != nil {
					return fmt.Errorf("failed to list assets: %w", err)
				}

				if len(list) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No assets found")

					return nil
				}

				return renderAssets(cmd.OutOrStdout(), list)
			})
		},
	}

	cmd.Flags().BoolVar(&allVersions, "all-versions", false, "include every version of every asset")

	return cmd
}

func newAssetsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ASSET_ID",
		Short: "Get asset details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				asset, err := assets.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to get asset: %w", err)
				}

				return renderAsset(cmd.OutOrStdout(), asset)
			})
		},
	}
}

func newAssetsVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions ASSET_ID",
		Short: "List the versions of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				versions, err := assets.Versions(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to list asset versions: %w", err)
				}

				return renderAssets(cmd.OutOrStdout(), versions)
			})
		},
	}
}

// readPayload returns the --data value parsed as JSON when possible, or the
// raw content of --file.
func readPayload(data, file string) (interface{}, error) {
	switch {
	case data != "":
		var value interface{}
		if json.Unmarshal([]byte(data), &value) == nil {
			return value, nil
		}

		return data, nil
	case file != "":
		content, err := os.ReadFile(file) // #nosec G304 -- user supplied payload file
		if err != nil {
			return nil, fmt.Errorf("reading payload file: %w", err)
		}

		return content, nil
	default:
		return nil, constants.ErrPayloadRequired
	}
}

func parseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil //nolint:nilnil // no parameters
	}

	params := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidParam, pair)
		}

		params[key] = value
	}

	return params, nil
}

func newAssetsCreateCommand() *cobra.Command {
	var (
		data      string
		file      string
		presigned bool
		noWait    bool
		params    []string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an asset",
		Long:  "Upload a new asset and wait until the platform has processed it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(data, file)
			if err != nil {
				return err
			}

			query, err := parseParams(params)
			if err != nil {
				return err
			}

			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				asset, err := assets.Create(cmd.Context(), args[0], payload, &arium.CreateOptions{
					Params:    query,
					Presigned: presigned,
					NoWait:    noWait,
				})
				if err != nil {
					return fmt.Errorf("failed to create asset: %w", err)
				}

				return renderAsset(cmd.OutOrStdout(), asset)
			})
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "payload as JSON or text")
	cmd.Flags().StringVarP(&file, "file", "f", "", "payload file")
	cmd.Flags().BoolVar(&presigned, "presigned", false, "upload through a presigned URL")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "return without waiting for processing")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "extra query parameter as KEY=VALUE (repeatable)")

	return cmd
}

func newAssetsRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename ASSET_ID NAME",
		Short: "Rename an asset",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and name
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				renamed, err := assets.Rename(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to rename asset: %w", err)
				}

				format, err := outputFormat()
				if err != nil {
					return err
				}

				if format == constants.FormatYAML {
					return renderYAML(cmd.OutOrStdout(), renamed)
				}

				return renderJSON(cmd.OutOrStdout(), renamed)
			})
		},
	}
}

func newAssetsCopyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "copy ASSET_ID NAME",
		Short: "Copy an asset under a new name",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and name
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				content, err := assets.Copy(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to copy asset: %w", err)
				}

				return renderContent(cmd.OutOrStdout(), content)
			})
		},
	}
}

func newAssetsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ASSET_ID",
		Short: "Delete an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				_, err := assets.Delete(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to delete asset: %w", err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted asset %s\n", args[0])

				return nil
			})
		},
	}
}

func newAssetsLockCommand(locked bool) *cobra.Command {
	use, short, verb := "lock", "Lock an asset", "Locked"
	if !locked {
		use, short, verb = "unlock", "Unlock an asset", "Unlocked"
	}

	return &cobra.Command{
		Use:   use + " ASSET_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				_, err := assets.Lock(cmd.Context(), args[0], locked)
				if err != nil {
					return fmt.Errorf("failed to %s asset: %w", use, err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s asset %s\n", verb, args[0])

				return nil
			})
		},
	}
}

func newAssetsEmptyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "empty",
		Short: "Report whether the collection has no assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				empty, err := assets.IsEmpty(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to check collection: %w", err)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), empty)

				return nil
			})
		},
	}
}

func newAssetsDescriptionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "description ASSET_ID",
		Short: "Show the description of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				description, err := assets.GetDescription(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to get description: %w", err)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), description)

				return nil
			})
		},
	}
}

func newAssetsSetDescriptionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-description ASSET_ID DESCRIPTION",
		Short: "Set the description of an asset",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and description
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				_, err := assets.SetDescription(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to set description: %w", err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated description of asset %s\n", args[0])

				return nil
			})
		},
	}
}

func newAssetsPayloadDescriptionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "payload-description ASSET_ID",
		Short: "Show the payload description of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				description, err := assets.GetPayloadDescription(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to get payload description: %w", err)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), description)

				return nil
			})
		},
	}
}

func newAssetsSetPayloadDescriptionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-payload-description ASSET_ID DESCRIPTION",
		Short: "Set the payload description of an asset",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and description
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				_, err := assets.UpdatePayloadDescription(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("failed to set payload description: %w", err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updated payload description of asset %s\n", args[0])

				return nil
			})
		},
	}
}

func newAssetsDataCommand() *cobra.Command {
	var (
		presigned bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "data ASSET_ID",
		Short: "Download the payload of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				data, err := assets.GetData(cmd.Context(), args[0], presigned)
				if err != nil {
					return fmt.Errorf("failed to get asset data: %w", err)
				}

				if output == "" {
					_, err = cmd.OutOrStdout().Write(data)

					return err //nolint:wrapcheck // stdout write
				}

				err = os.WriteFile(output, data, constants.ExportFilePerm)
				if err != nil {
					return fmt.Errorf("writing asset data: %w", err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(data), output)

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&presigned, "presigned", false, "download through a presigned URL")
	cmd.Flags().StringVarP(&output, "out", "O", "", "write the payload to a file instead of stdout")

	return cmd
}

func newAssetsReportsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reports ASSET_ID",
		Short: "List the reports of an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				content, err := assets.ListReports(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to list reports: %w", err)
				}

				return renderContent(cmd.OutOrStdout(), content)
			})
		},
	}
}

func newAssetsReportCommand() *cobra.Command {
	var (
		csv     bool
		raw     bool
		noUnzip bool
	)

	cmd := &cobra.Command{
		Use:   "report ASSET_ID FILE",
		Short: "Download a report of an asset",
		Args:  cobra.ExactArgs(2), //nolint:mnd // id and file
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				content, err := assets.GetReport(cmd.Context(), args[0], args[1], &arium.ReportOptions{
					CSV:   csv,
					Unzip: !noUnzip,
					Raw:   raw,
				})
				if err != nil {
					return fmt.Errorf("failed to get report: %w", err)
				}

				return renderContent(cmd.OutOrStdout(), content)
			})
		},
	}

	cmd.Flags().BoolVar(&csv, "csv", false, "parse the report as CSV rows")
	cmd.Flags().BoolVar(&raw, "raw", false, "write the report bytes unparsed")
	cmd.Flags().BoolVar(&noUnzip, "no-unzip", false, "do not extract zipped reports")

	return cmd
}

func newAssetsImportCommand() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import an archive of assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				job, err := assets.Import(cmd.Context(), args[0], wait)
				if err != nil {
					return fmt.Errorf("failed to import assets: %w", err)
				}

				return renderJob(cmd.OutOrStdout(), job)
			})
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the import job to finish")

	return cmd
}

func newAssetsExportCommand() *cobra.Command {
	var (
		name   string
		folder string
	)

	cmd := &cobra.Command{
		Use:   "export ASSET_ID...",
		Short: "Export assets to an archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return constants.ErrAssetIDsRequired
			}

			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				written, err := assets.Export(cmd.Context(), args, &arium.ExportOptions{Name: name, OutputFolder: folder})
				if err != nil {
					return fmt.Errorf("failed to export assets: %w", err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d asset(s) to %s\n", len(args), written)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "archive file name")
	cmd.Flags().StringVar(&folder, "folder", "", "output folder")

	return cmd
}

func newAssetsCopyWorkspaceCommand() *cobra.Command {
	var (
		from string
		to   string
		wait bool
	)

	cmd := &cobra.Command{
		Use:   "copy-workspace [ASSET_ID...]",
		Short: "Copy assets between workspaces",
		Long:  "Copy the given assets, or the whole collection when none are given, from one workspace to another",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" || to == "" {
				return constants.ErrTenantsRequired
			}

			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				job, err := assets.CopyWorkspace(cmd.Context(), from, to, args, wait)
				if err != nil {
					return fmt.Errorf("failed to copy workspace: %w", err)
				}

				return renderJob(cmd.OutOrStdout(), job)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source workspace")
	cmd.Flags().StringVar(&to, "to", "", "destination workspace")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the copy job to finish")

	return cmd
}

func newAssetsPollCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Wait for an asset workflow to finish",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload ASSET_ID",
		Short: "Wait until an uploaded asset is processed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				status, err := assets.PollUpload(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to poll upload: %w", err)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), status)

				return nil
			})
		},
	})

	for _, kind := range []arium.JobKind{arium.JobKindImport, arium.JobKindCopy} {
		cmd.AddCommand(newAssetsPollJobCommand(kind))
	}

	return cmd
}

func newAssetsPollJobCommand(kind arium.JobKind) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " JOB_ID",
		Short: fmt.Sprintf("Wait until a %s job finishes", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assetsRun(cmd, func(assets arium.AssetsClient) error {
				poll := assets.PollImport
				if kind == arium.JobKindCopy {
					poll = assets.PollCopy
				}

				job, err := poll(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to poll %s job: %w", kind, err)
				}

				return renderJob(cmd.OutOrStdout(), job)
			})
		},
	}
}
