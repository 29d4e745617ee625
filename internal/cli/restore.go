package cli

import (
	"fmt"

	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Move quarantined messages back to the inbox",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			defer rt.Close(ctx)

			folder, _ := cmd.Flags().GetString("folder")
			destination, _ := cmd.Flags().GetString("destination")
			creds, err := rt.credentials()
			if err != nil {
				return err
			}

			result, err := rt.service.Restore(ctx, cleanup.RestoreRequest{
				Credentials: creds,
				Folder:      folder,
				Destination: destination,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d messages from %q to %q\n",
				result.Restored, result.Folder, result.Destination)
			return nil
		},
	}
	cmd.Flags().String("folder", "", "Folder to restore from (defaults to the quarantine folder)")
	cmd.Flags().String("destination", "", "Folder to restore into (defaults to the inbox)")
	return cmd
}
