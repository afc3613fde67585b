package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"campusid/internal/registration/models"
)

func newRegisterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an admin or a student",
	}
	cmd.AddCommand(newRegisterAdminCmd(a), newRegisterStudentCmd(a))
	return cmd
}

func newRegisterAdminCmd(a *app) *cobra.Command {
	var req models.AdminRegistration

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Register an administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("confirm-password") {
				req.ConfirmPassword = req.Password
			}
			if err := checkRequest(&req); err != nil {
				return err
			}
			d, err := buildDeps(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer d.Close()

			out, err := d.service.RegisterAdmin(cmd.Context(), req)
			return reportOutcome(cmd.OutOrStdout(), out, err)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.AdminCode, "admin-code", "", "admin registration code")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Password, "password", "", "password")
	f.StringVar(&req.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	f.StringVar(&req.FullName, "full-name", "", "full name")
	f.StringVar(&req.MobileNumber, "mobile", "", "mobile number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("full-name")
	return cmd
}

func newRegisterStudentCmd(a *app) *cobra.Command {
	var req models.StudentRegistration

	cmd := &cobra.Command{
		Use:   "student",
		Short: "Register a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("confirm-password") {
				req.ConfirmPassword = req.Password
			}
			if err := checkRequest(&req); err != nil {
				return err
			}
			d, err := buildDeps(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer d.Close()

			out, err := d.service.RegisterStudent(cmd.Context(), req)
			return reportOutcome(cmd.OutOrStdout(), out, err)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Password, "password", "", "password")
	f.StringVar(&req.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	f.StringVar(&req.FullName, "full-name", "", "full name")
	f.StringVar(&req.RollNumber, "roll-number", "", "roll number, unique within the course")
	f.StringVar(&req.Course, "course", "", "course (MCA, MBA, MA, MCom, MSc)")
	f.StringVar(&req.MobileNumber, "mobile", "", "mobile number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("full-name")
	return cmd
}

// checkRequest applies the same normalization and shape checks as the HTTP
// handler before any backend is opened.
func checkRequest(req interface {
	Normalize()
	Validate() error
}) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
