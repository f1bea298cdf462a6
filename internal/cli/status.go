package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/ifitclub/ifit-agent/internal/session"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, infra, err := setup(ctx)
			if err != nil {
				return err
			}
			defer infra.Shutdown(ctx)

			sessions := openSession(ctx, cfg, infra)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "State:   %s\n", sessions.State())

			current, ok := sessions.Current()
			if !ok {
				return nil
			}

			fmt.Fprintf(out, "Athlete: %d\n", current.AthleteID)
			if name := strings.TrimSpace(current.FirstName + " " + current.LastName); name != "" {
				fmt.Fprintf(out, "Name:    %s\n", name)
			}

			// Expiry is display-only; the platform treats tokens as opaque.
			if expiry, ok := session.TokenExpiry(current.Token); ok {
				fmt.Fprintf(out, "Token:   expires %s\n", expiry.Format(time.RFC3339))
			} else {
				fmt.Fprintln(out, "Token:   present (no readable expiry)")
			}
			return nil
		},
	}
}
