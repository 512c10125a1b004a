package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/rbac-console/internal/groups"
	"github.com/odyssey-erp/rbac-console/internal/permissions"
	"github.com/odyssey-erp/rbac-console/internal/roles"
	"github.com/odyssey-erp/rbac-console/internal/shared"
	"github.com/odyssey-erp/rbac-console/internal/users"
)

func usersService(rt *Runtime) *users.Service {
	return users.NewService(users.NewRepository(rt.Sessions.Gateway()))
}

func rolesService(rt *Runtime) *roles.Service {
	return roles.NewService(roles.NewRepository(rt.Sessions.Gateway()))
}

func permissionsService(rt *Runtime) *permissions.Service {
	return permissions.NewService(permissions.NewRepository(rt.Sessions.Gateway()))
}

func groupsService(rt *Runtime) *groups.Service {
	return groups.NewService(groups.NewRepository(rt.Sessions.Gateway()))
}

var userEntity = entity[users.User]{
	name:   "users",
	header: []string{"ID", "EMAIL", "NAME", "ACTIVE", "ROLES"},
	row: func(u users.User) []string {
		names := make([]string, 0, len(u.Roles))
		for _, r := range u.Roles {
			names = append(names, r.Name)
		}
		return []string{itoa(u.ID), u.Email, u.FullName(), yesNo(u.Active), strings.Join(names, ", ")}
	},
	list: func(rt *Runtime) func(context.Context, shared.ListParams) (shared.Page[users.User], error) {
		return usersService(rt).List
	},
	get:    func(rt *Runtime) func(context.Context, int64) (users.User, error) { return usersService(rt).Get },
	remove: func(rt *Runtime) func(context.Context, int64) (string, error) { return usersService(rt).Delete },
}

var roleEntity = entity[roles.Role]{
	name:   "roles",
	header: []string{"ID", "NAME", "ORDER", "PERMISSIONS"},
	row: func(r roles.Role) []string {
		return []string{itoa(r.ID), r.Name, itoa(int64(r.Ordinal)), itoa(int64(len(r.Permissions)))}
	},
	list: func(rt *Runtime) func(context.Context, shared.ListParams) (shared.Page[roles.Role], error) {
		return rolesService(rt).List
	},
	get:    func(rt *Runtime) func(context.Context, int64) (roles.Role, error) { return rolesService(rt).Get },
	remove: func(rt *Runtime) func(context.Context, int64) (string, error) { return rolesService(rt).Delete },
}

var permissionEntity = entity[permissions.Permission]{
	name:   "permissions",
	header: []string{"ID", "NAME", "ALIAS", "GROUP"},
	row: func(p permissions.Permission) []string {
		group := ""
		switch {
		case p.Group != nil:
			group = p.Group.Label()
		case p.GroupID != nil:
			group = itoa(*p.GroupID)
		}
		return []string{itoa(p.ID), p.Name, p.Alias, group}
	},
	list: func(rt *Runtime) func(context.Context, shared.ListParams) (shared.Page[permissions.Permission], error) {
		return permissionsService(rt).List
	},
	get:    func(rt *Runtime) func(context.Context, int64) (permissions.Permission, error) { return permissionsService(rt).Get },
	remove: func(rt *Runtime) func(context.Context, int64) (string, error) { return permissionsService(rt).Delete },
}

var groupEntity = entity[groups.Group]{
	name:   "groups",
	header: []string{"ID", "NAME", "ALIAS", "ICON", "ORDER"},
	row: func(g groups.Group) []string {
		return []string{itoa(g.ID), g.Name, g.Alias, g.Icon, itoa(int64(g.Ordinal))}
	},
	list: func(rt *Runtime) func(context.Context, shared.ListParams) (shared.Page[groups.Group], error) {
		return groupsService(rt).List
	},
	get:    func(rt *Runtime) func(context.Context, int64) (groups.Group, error) { return groupsService(rt).Get },
	remove: func(rt *Runtime) func(context.Context, int64) (string, error) { return groupsService(rt).Delete },
}

func (p *program) usersCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage user accounts"}

	var (
		in       users.CreateInput
		surname  string
		inactive bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			in.Surname = changed(cmd, "surname", surname)
			if inactive {
				active := false
				in.Active = &active
			}
			user, err := usersService(rt).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return p.show(cmd, userEntity, user)
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "First name")
	create.Flags().StringVar(&surname, "surname", "", "Last name")
	create.Flags().StringVar(&in.Email, "email", "", "Email")
	create.Flags().StringVar(&in.Password, "password", "", "Initial password")
	create.Flags().BoolVar(&inactive, "inactive", false, "Create the account disabled")

	var (
		name, updSurname, email string
		active                  bool
	)
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change a user; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			user, err := usersService(rt).Update(cmd.Context(), id, users.UpdateInput{
				Name:    changed(cmd, "name", name),
				Surname: changed(cmd, "surname", updSurname),
				Email:   changed(cmd, "email", email),
				Active:  changed(cmd, "active", active),
			})
			if err != nil {
				return err
			}
			return p.show(cmd, userEntity, user)
		},
	}
	update.Flags().StringVar(&name, "name", "", "First name")
	update.Flags().StringVar(&updSurname, "surname", "", "Last name")
	update.Flags().StringVar(&email, "email", "", "Email")
	update.Flags().BoolVar(&active, "active", true, "Enable or disable the account")

	cmd.AddCommand(listCommand(p, userEntity), getCommand(p, userEntity), create, update, deleteCommand(p, userEntity))
	return cmd
}

func (p *program) rolesCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "roles", Short: "Manage roles"}

	var (
		name  string
		order int
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			role, err := rolesService(rt).Create(cmd.Context(), roles.CreateInput{Name: name, Ordinal: changed(cmd, "order", order)})
			if err != nil {
				return err
			}
			return p.show(cmd, roleEntity, role)
		},
	}
	create.Flags().StringVar(&name, "name", "", "Role name")
	create.Flags().IntVar(&order, "order", 0, "Display order")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Rename or reorder a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			role, err := rolesService(rt).Update(cmd.Context(), id, roles.UpdateInput{
				Name:    changed(cmd, "name", name),
				Ordinal: changed(cmd, "order", order),
			})
			if err != nil {
				return err
			}
			return p.show(cmd, roleEntity, role)
		},
	}
	update.Flags().StringVar(&name, "name", "", "Role name")
	update.Flags().IntVar(&order, "order", 0, "Display order")

	cmd.AddCommand(listCommand(p, roleEntity), getCommand(p, roleEntity), create, update, deleteCommand(p, roleEntity))
	return cmd
}

func (p *program) permissionsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "permissions", Short: "Manage permissions"}

	var (
		name, alias string
		groupID     int64
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a permission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			perm, err := permissionsService(rt).Create(cmd.Context(), permissions.CreateInput{
				Name:    name,
				Alias:   alias,
				GroupID: changed(cmd, "group", groupID),
			})
			if err != nil {
				return err
			}
			return p.show(cmd, permissionEntity, perm)
		},
	}
	create.Flags().StringVar(&name, "name", "", "Permission name, e.g. users.read")
	create.Flags().StringVar(&alias, "alias", "", "Display alias")
	create.Flags().Int64Var(&groupID, "group", 0, "Owning group id")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change a permission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			perm, err := permissionsService(rt).Update(cmd.Context(), id, permissions.UpdateInput{
				Name:    changed(cmd, "name", name),
				Alias:   changed(cmd, "alias", alias),
				GroupID: changed(cmd, "group", groupID),
			})
			if err != nil {
				return err
			}
			return p.show(cmd, permissionEntity, perm)
		},
	}
	update.Flags().StringVar(&name, "name", "", "Permission name")
	update.Flags().StringVar(&alias, "alias", "", "Display alias")
	update.Flags().Int64Var(&groupID, "group", 0, "Owning group id")

	setGroup := &cobra.Command{
		Use:   "set-group ID GROUP_ID",
		Short: "Move a permission to another group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			gid, err := parseID(args[1])
			if err != nil {
				return err
			}
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			perm, err := permissionsService(rt).AssignGroup(cmd.Context(), id, gid)
			if err != nil {
				return err
			}
			return p.show(cmd, permissionEntity, perm)
		},
	}

	cmd.AddCommand(listCommand(p, permissionEntity), getCommand(p, permissionEntity), create, update, setGroup, deleteCommand(p, permissionEntity))
	return cmd
}

func (p *program) groupsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "groups", Short: "Manage permission groups"}

	var (
		name, alias, icon string
		order             int
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			group, err := groupsService(rt).Create(cmd.Context(), groups.CreateInput{
				Name:    name,
				Alias:   alias,
				Icon:    icon,
				Ordinal: changed(cmd, "order", order),
			})
			if err != nil {
				return err
			}
			return p.show(cmd, groupEntity, group)
		},
	}
	create.Flags().StringVar(&name, "name", "", "Group name; also the module name used for menu visibility")
	create.Flags().StringVar(&alias, "alias", "", "Display label")
	create.Flags().StringVar(&icon, "icon", "", "Icon identifier")
	create.Flags().IntVar(&order, "order", 0, "Menu order")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			group, err := groupsService(rt).Update(cmd.Context(), id, groups.UpdateInput{
				Name:    changed(cmd, "name", name),
				Alias:   changed(cmd, "alias", alias),
				Icon:    changed(cmd, "icon", icon),
				Ordinal: changed(cmd, "order", order),
			})
			if err != nil {
				return err
			}
			return p.show(cmd, groupEntity, group)
		},
	}
	update.Flags().StringVar(&name, "name", "", "Group name")
	update.Flags().StringVar(&alias, "alias", "", "Display label")
	update.Flags().StringVar(&icon, "icon", "", "Icon identifier")
	update.Flags().IntVar(&order, "order", 0, "Menu order")

	cmd.AddCommand(listCommand(p, groupEntity), getCommand(p, groupEntity), create, update, deleteCommand(p, groupEntity))
	return cmd
}
