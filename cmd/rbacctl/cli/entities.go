package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// entity describes how one backend collection is listed, shown and deleted.
type entity[T any] struct {
	name   string
	header []string
	row    func(T) []string
	list   func(rt *Runtime) func(context.Context, shared.ListParams) (shared.Page[T], error)
	get    func(rt *Runtime) func(context.Context, int64) (T, error)
	remove func(rt *Runtime) func(context.Context, int64) (string, error)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.NewValidationError("id", fmt.Sprintf("%q is not a positive integer", arg))
	}
	return id, nil
}

func listCommand[T any](p *program, e entity[T]) *cobra.Command {
	var params shared.ListParams
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + e.name,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			page, err := e.list(rt)(cmd.Context(), params)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if p.asJSON {
				return printJSON(w, page)
			}
			rows := make([][]string, 0, len(page.Pagination.Data))
			for _, item := range page.Pagination.Data {
				rows = append(rows, e.row(item))
			}
			if err := renderTable(w, e.header, rows); err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "page %d/%d, %d %s\n", page.Pagination.Page, page.Pagination.TotalPages, page.Pagination.TotalItems, e.name)
			return err
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&params.PageSize, "page-size", 10, "Rows per page")
	cmd.Flags().StringVar(&params.SortBy, "sort-by", "", "Sort field")
	cmd.Flags().StringVar(&params.SortOrder, "sort-order", "", "ASC or DESC")
	cmd.Flags().StringVar(&params.Search, "search", "", "Free text filter")
	return cmd
}

func getCommand[T any](p *program, e entity[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one of the " + e.name,
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
			item, err := e.get(rt)(cmd.Context(), id)
			if err != nil {
				return err
			}
			return p.show(cmd, e, item)
		},
	}
}

func deleteCommand[T any](p *program, e entity[T]) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of the " + e.name,
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
			msg, err := e.remove(rt)(cmd.Context(), id)
			if err != nil {
				return err
			}
			if msg == "" {
				msg = fmt.Sprintf("Deleted %d", id)
			}
			return p.report(cmd.OutOrStdout(), msg)
		},
	}
}

func (p *program) show(cmd *cobra.Command, e entityRenderer, item any) error {
	w := cmd.OutOrStdout()
	if p.asJSON {
		return printJSON(w, item)
	}
	return renderTable(w, e.columns(), [][]string{e.render(item)})
}

// entityRenderer lets show work on any entity without knowing T.
type entityRenderer interface {
	columns() []string
	render(item any) []string
}

func (e entity[T]) columns() []string { return e.header }

func (e entity[T]) render(item any) []string {
	return e.row(item.(T))
}

// changed returns a pointer to v when the flag was set on the command line.
func changed[V any](cmd *cobra.Command, flag string, v V) *V {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &v
}
