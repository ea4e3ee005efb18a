package cli

import (
	"github.com/spf13/cobra"
)

func newRegisterCmd(rt *runtime) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := rt.app.Session.Register(cmd.Context(), username, email, password)
			if err != nil {
				return displayError(err)
			}

			rt.out.Print(IdentityResult{Username: identity.Username})
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCmd(rt *runtime) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := rt.app.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return displayError(err)
			}

			rt.out.Print(IdentityResult{Username: identity.Username})
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt.app.Session.Logout(cmd.Context())
			rt.out.PrintMessage("Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := rt.requireSession()
			if err != nil {
				return err
			}

			rt.out.Print(IdentityResult{Username: identity.Username})
			return nil
		},
	}
}
