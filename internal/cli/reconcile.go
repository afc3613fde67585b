package cli

import (
	"github.com/spf13/cobra"

	"campusid/internal/registration/reconcile"
)

func newReconcileCmd(a *app) *cobra.Command {
	var courses []string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recreate missing student projections from course profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer d.Close()

			r := d.reconciler
			if len(courses) > 0 {
				r = reconcile.New(d.profiles,
					reconcile.WithLogger(a.logger),
					reconcile.WithAuditPublisher(d.publisher),
					reconcile.WithMetrics(d.metrics),
					reconcile.WithCourses(courses...),
				)
			}
			report, err := r.Sweep(cmd.Context())
			if report != nil {
				if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&courses, "course", nil, "limit the sweep to these courses (repeatable)")
	return cmd
}
