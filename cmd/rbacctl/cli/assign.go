package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/rbac-console/internal/assignment"
)

var errJobsDisabled = errors.New("async assignments need a job queue (REDIS_ADDR)")

func (p *program) assignCommand() *cobra.Command {
	return p.edgeCommand(assignment.ActionAssign, "assign KIND LEFT_ID RIGHT_ID", "Grant a role to a user or a permission to a role")
}

func (p *program) unassignCommand() *cobra.Command {
	return p.edgeCommand(assignment.ActionUnassign, "unassign KIND LEFT_ID RIGHT_ID", "Revoke a role from a user or a permission from a role")
}

func (p *program) edgeCommand(action assignment.Action, use, short string) *cobra.Command {
	var async bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

KIND is user-role (LEFT_ID is a user, RIGHT_ID a role) or role-permission
(LEFT_ID is a role, RIGHT_ID a permission). Repeating the command is safe:
an edge that is already in the requested state is not an error.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := assignment.ParseKind(args[0])
			if err != nil {
				return err
			}
			left, err := parseID(args[1])
			if err != nil {
				return err
			}
			right, err := parseID(args[2])
			if err != nil {
				return err
			}
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}

			op := assignment.Operation{Kind: kind, Action: action, LeftID: left, RightID: right}
			if async {
				if rt.Jobs == nil {
					return errJobsDisabled
				}
				taskID, err := rt.Jobs.EnqueueAssignments(cmd.Context(), []assignment.Operation{op})
				if err != nil {
					return fmt.Errorf("enqueue: %w", err)
				}
				return p.report(cmd.OutOrStdout(), fmt.Sprintf("Queued %s %s %d→%d as task %s", action, kind, left, right, taskID))
			}

			svc := assignment.NewService(rt.Sessions.Gateway(), rt.Logger)
			if err := svc.Apply(cmd.Context(), []assignment.Operation{op}); err != nil {
				return err
			}
			return p.report(cmd.OutOrStdout(), fmt.Sprintf("%s %s %d→%d done", action, kind, left, right))
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "Queue the change for the worker instead of applying it now")
	return cmd
}
