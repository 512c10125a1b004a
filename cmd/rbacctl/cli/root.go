// Package cli implements the rbacctl command tree.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

type program struct {
	factory Factory
	rt      *Runtime
	asJSON  bool
}

func (p *program) runtime(ctx context.Context) (*Runtime, error) {
	if p.rt != nil {
		return p.rt, nil
	}
	rt, err := p.factory(ctx)
	if err != nil {
		return nil, err
	}
	p.rt = rt
	return rt, nil
}

// NewRootCommand builds the command tree around factory. The returned
// release func closes the runtime if one was built.
func NewRootCommand(factory Factory) (root *cobra.Command, release func() error) {
	p := &program{factory: factory}
	root = &cobra.Command{
		Use:   "rbacctl",
		Short: "Administer users, roles and permissions of an RBAC backend",
		Long: `rbacctl manages users, roles, permissions and permission groups through
the backend REST API. It keeps the session tokens between runs and refreshes
them transparently when the backend answers 401.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&p.asJSON, "json", false, "Print machine readable JSON instead of tables")

	root.AddCommand(
		p.authCommand(),
		p.usersCommand(),
		p.rolesCommand(),
		p.permissionsCommand(),
		p.groupsCommand(),
		p.assignCommand(),
		p.unassignCommand(),
		p.menuCommand(),
		p.serveCommand(),
		p.jobsCommand(),
	)
	return root, func() error { return p.rt.Close() }
}

// Execute runs args against the command tree and releases the runtime.
func Execute(ctx context.Context, factory Factory, args []string, stdout, stderr io.Writer) error {
	root, release := NewRootCommand(factory)
	defer func() { _ = release() }()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
