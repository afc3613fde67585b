package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"campusid/internal/registration/models"
)

func newLoginCmd(a *app) *cobra.Command {
	var req models.Credentials

	cmd := &cobra.Command{
		Use:       "login admin|student",
		Short:     "Authenticate and print the dashboard route and ID token",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.ActorAdmin), string(models.ActorStudent)},
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := models.Actor(args[0])
			if !actor.Valid() {
				return fmt.Errorf("unknown account type %q: want admin or student", args[0])
			}
			if err := checkRequest(&req); err != nil {
				return err
			}
			d, err := buildDeps(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer d.Close()

			out, err := d.service.Login(cmd.Context(), actor, req)
			return reportOutcome(cmd.OutOrStdout(), out, err)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
