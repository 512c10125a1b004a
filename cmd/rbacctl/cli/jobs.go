package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/rbac-console/internal/assignment"
	"github.com/odyssey-erp/rbac-console/jobs"
)

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// InspectQueue reports the metrics of the default queue.
func InspectQueue(inspector jobs.QueueInspector) (QueueStats, error) {
	if inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = int(info.Pending)
		stats.Active = int(info.Active)
		stats.Scheduled = int(info.Scheduled)
		stats.Retry = int(info.Retry)
		stats.Archived = int(info.Archived)
	}
	return stats, nil
}

// readOperations decodes a JSON array of operations.
func readOperations(r io.Reader) ([]assignment.Operation, error) {
	var ops []assignment.Operation
	if err := json.NewDecoder(r).Decode(&ops); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	if err := (jobs.AssignmentsPayload{Operations: ops}).Validate(); err != nil {
		return nil, err
	}
	return ops, nil
}

func (p *program) jobsCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "jobs", Short: "Queue assignment batches and inspect the worker queue"}

	var file string
	enqueue := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a batch of assignment operations read from a JSON file",
		Long: `Reads a JSON array such as
  [{"kind":"user-role","action":"assign","leftId":4,"rightId":2}]
and queues it as one task. Use --file - to read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			ops, err := readOperations(in)
			if err != nil {
				return err
			}
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			if rt.Jobs == nil {
				return errJobsDisabled
			}
			taskID, err := rt.Jobs.EnqueueAssignments(cmd.Context(), ops)
			if err != nil {
				return fmt.Errorf("enqueue: %w", err)
			}
			return p.report(cmd.OutOrStdout(), fmt.Sprintf("Queued %d operations as task %s", len(ops), taskID))
		},
	}
	enqueue.Flags().StringVar(&file, "file", "-", "Path to the operations file")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show the state of the job queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := p.runtime(cmd.Context())
			if err != nil {
				return err
			}
			inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: rt.Config.RedisAddr})
			defer inspector.Close()
			s, err := InspectQueue(inspector)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if p.asJSON {
				return printJSON(w, s)
			}
			return renderTable(w, []string{"QUEUE", "PENDING", "ACTIVE", "SCHEDULED", "RETRY", "ARCHIVED"}, [][]string{{
				s.Queue, itoa(int64(s.Pending)), itoa(int64(s.Active)), itoa(int64(s.Scheduled)), itoa(int64(s.Retry)), itoa(int64(s.Archived)),
			}})
		},
	}

	cmd.AddCommand(enqueue, stats)
	return cmd
}
