package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/rbac-console/internal/auth"
	"github.com/odyssey-erp/rbac-console/internal/session"
)

func (p *program) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in, log out and manage account credentials",
	}
	cmd.AddCommand(
		p.loginCommand(),
		p.logoutCommand(),
		p.statusCommand(),
		p.registerCommand(),
		p.forgotCommand(),
		p.resetCommand(),
		p.verifyCommand(),
	)
	return cmd
}

func (p *program) loginCommand() *cobra.Command {
	var creds session.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session tokens",
		Long: `Authenticates with email and password. The access and refresh tokens are
persisted in the configured credential store (CREDENTIAL_BACKEND) and reused
by later commands. Omit --password to be prompted for it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			if creds.Password == "" {
				creds.Password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			sess, err := rt.Sessions.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			name := creds.Email
			if sess.User != nil {
				name = sess.User.FullName()
			}
			return p.report(cmd.OutOrStdout(), fmt.Sprintf("Logged in as %s (%d permissions)", name, len(sess.PermissionNames)))
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (p *program) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			rt.Sessions.Logout(cmd.Context())
			return p.report(cmd.OutOrStdout(), "Logged out")
		},
	}
}

type statusView struct {
	State       string   `json:"state"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	Permissions []string `json:"permissions"`
}

func (p *program) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display authentication status and effective permissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			sess := rt.Sessions.Snapshot()
			if sess.IsAuthenticated() && sess.User == nil {
				sess, err = rt.Sessions.FetchProfile(cmd.Context())
				if err != nil {
					return err
				}
			}

			view := statusView{State: rt.Sessions.State().String(), Permissions: sess.PermissionNames.Names()}
			if sess.User != nil {
				view.Email = sess.User.Email
				view.Name = sess.User.FullName()
			}
			w := cmd.OutOrStdout()
			if p.asJSON {
				return printJSON(w, view)
			}
			section(w, "Authentication Status")
			if !sess.IsAuthenticated() {
				pterm.Warning.WithWriter(w).Println("Not logged in")
				return nil
			}
			pterm.Info.WithWriter(w).Printfln("Logged in as %s <%s>", view.Name, view.Email)
			section(w, "Effective Permissions")
			rows := make([][]string, 0, len(view.Permissions))
			for _, name := range view.Permissions {
				rows = append(rows, []string{name})
			}
			return renderTable(w, []string{"PERMISSION"}, rows)
		},
	}
}

func (p *program) registerCommand() *cobra.Command {
	var (
		in      auth.RegisterInput
		surname string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			if s := strings.TrimSpace(surname); s != "" {
				in.Surname = &s
			}
			res, err := auth.NewService(rt.Client).Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			if p.asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			return p.report(cmd.OutOrStdout(), res.Message)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "First name")
	cmd.Flags().StringVar(&surname, "surname", "", "Last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (10+ chars, upper-case, digit, special)")
	cmd.Flags().BoolVar(&in.PrivacyAccepted, "accept-privacy", false, "Accept the privacy notice")
	cmd.Flags().BoolVar(&in.PolicyAccepted, "accept-policy", false, "Accept the usage policy")
	return cmd
}

func (p *program) forgotCommand() *cobra.Command {
	var in auth.ForgotPasswordInput
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := auth.NewService(rt.Client).ForgotPassword(cmd.Context(), in)
			if err != nil {
				return err
			}
			return p.report(cmd.OutOrStdout(), msg)
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "Account email")
	return cmd
}

func (p *program) resetCommand() *cobra.Command {
	var in auth.ResetPasswordInput
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			msg, err := auth.NewService(rt.Client).ResetPassword(cmd.Context(), in)
			if err != nil {
				return err
			}
			return p.report(cmd.OutOrStdout(), msg)
		},
	}
	cmd.Flags().StringVar(&in.Token, "token", "", "Reset token from the email")
	cmd.Flags().StringVar(&in.NewPassword, "password", "", "New password")
	return cmd
}

var errInvalidResetToken = errors.New("reset token is invalid or expired")

func (p *program) verifyCommand() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "verify-token",
		Short: "Check a password reset token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			ok, err := auth.NewService(rt.Client).VerifyResetToken(cmd.Context(), token)
			if err != nil {
				return err
			}
			if !ok {
				return errInvalidResetToken
			}
			return p.report(cmd.OutOrStdout(), "Reset token is valid")
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Reset token from the email")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
