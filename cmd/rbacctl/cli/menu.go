package cli

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/rbac-console/internal/rbac"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

func (p *program) menuCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Show the administration modules visible to the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			sess := rt.Sessions.Snapshot()
			if !sess.IsAuthenticated() {
				return shared.ErrNotAuthenticated
			}
			if sess.User == nil {
				if sess, err = rt.Sessions.FetchProfile(cmd.Context()); err != nil {
					return err
				}
			}
			menu := sess.Menu(rbac.NewModuleRegistry(rbac.DefaultModules()...), rbac.DefaultIcons())

			w := cmd.OutOrStdout()
			if p.asJSON {
				return printJSON(w, menu)
			}
			if menu.Account {
				pterm.Info.WithWriter(w).Println("Account page available")
			}
			if !menu.HasAdminModules {
				pterm.Warning.WithWriter(w).Println("No administration modules")
				return nil
			}
			rows := make([][]string, 0, len(menu.Items))
			for _, item := range menu.Items {
				rows = append(rows, []string{item.Label, item.Path, item.Icon})
			}
			return renderTable(w, []string{"MODULE", "PATH", "ICON"}, rows)
		},
	}
}
