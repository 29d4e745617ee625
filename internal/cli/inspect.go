package cli

import (
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the raw source of one message",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			defer rt.Close(ctx)

			folder, _ := cmd.Flags().GetString("folder")
			uid, _ := cmd.Flags().GetUint32("uid")
			creds, err := rt.credentials()
			if err != nil {
				return err
			}

			raw, err := rt.service.Inspect(ctx, creds, folder, uid)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
	cmd.Flags().String("folder", "", "Folder holding the message (defaults to the quarantine folder)")
	cmd.Flags().Uint32("uid", 0, "UID of the message")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}
