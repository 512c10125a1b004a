// Package assignment mutates User↔Role and Role↔Permission edges.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Kind names an edge type.
type Kind string

const (
	KindUserRole       Kind = "user-role"
	KindRolePermission Kind = "role-permission"
)

// Action is assign or unassign.
type Action string

const (
	ActionAssign   Action = "assign"
	ActionUnassign Action = "unassign"
)

// ParseKind accepts "user-role" and "role-permission".
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindUserRole, KindRolePermission:
		return Kind(s), nil
	}
	return "", shared.NewValidationError("kind", fmt.Sprintf("must be one of %s %s", KindUserRole, KindRolePermission))
}

// ParseAction accepts "assign" and "unassign".
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAssign, ActionUnassign:
		return Action(s), nil
	}
	return "", shared.NewValidationError("action", fmt.Sprintf("must be one of %s %s", ActionAssign, ActionUnassign))
}

// Operation is one edge mutation of a batch.
type Operation struct {
	Kind    Kind   `json:"kind"`
	Action  Action `json:"action"`
	LeftID  int64  `json:"leftId"`
	RightID int64  `json:"rightId"`
}

// Sender is the authenticated transport.
type Sender interface {
	Send(ctx context.Context, req *api.Request) (*api.Response, error)
}

// Service assigns and unassigns edges. It keeps no local state.
type Service struct {
	sender Sender
	logger *slog.Logger
}

// NewService constructs the service.
func NewService(sender Sender, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sender: sender, logger: logger}
}

// Assign creates the edge. An existing edge is success.
func (s *Service) Assign(ctx context.Context, kind Kind, leftID, rightID int64) error {
	return s.mutate(ctx, kind, ActionAssign, leftID, rightID)
}

// Unassign removes the edge. A missing edge is success.
func (s *Service) Unassign(ctx context.Context, kind Kind, leftID, rightID int64) error {
	return s.mutate(ctx, kind, ActionUnassign, leftID, rightID)
}

// Apply runs ops in order and stops at the first error.
func (s *Service) Apply(ctx context.Context, ops []Operation) error {
	for i, op := range ops {
		if err := s.mutate(ctx, op.Kind, op.Action, op.LeftID, op.RightID); err != nil {
			return fmt.Errorf("assignment: operation %d: %w", i, err)
		}
	}
	return nil
}

func (s *Service) mutate(ctx context.Context, kind Kind, action Action, leftID, rightID int64) error {
	req, err := buildRequest(kind, action, leftID, rightID)
	if err != nil {
		return err
	}
	_, err = s.sender.Send(ctx, req)
	if err == nil {
		return nil
	}
	if idempotent(action, err) {
		if action == ActionUnassign {
			if verr := s.endpointsExist(ctx, kind, leftID, rightID); verr != nil {
				return fmt.Errorf("assignment: %s %s: %w", action, kind, verr)
			}
		}
		s.logger.Debug("edge already in requested state",
			slog.String("kind", string(kind)),
			slog.String("action", string(action)),
			slog.Int64("left_id", leftID),
			slog.Int64("right_id", rightID))
		return nil
	}
	return fmt.Errorf("assignment: %s %s: %w", action, kind, err)
}

// idempotent reports a 409 on assign or a 404 on unassign.
func idempotent(action Action, err error) bool {
	switch action {
	case ActionAssign:
		return errors.Is(err, shared.ErrConflict)
	case ActionUnassign:
		return errors.Is(err, shared.ErrNotFound)
	}
	return false
}

// endpointsExist tells a missing edge apart from a missing user, role or
// permission, since the backend answers 404 for both.
func (s *Service) endpointsExist(ctx context.Context, kind Kind, leftID, rightID int64) error {
	var paths [2]string
	switch kind {
	case KindUserRole:
		paths = [2]string{"/users/", "/ruoli/"}
	case KindRolePermission:
		paths = [2]string{"/ruoli/", "/permessi/"}
	default:
		return shared.NewValidationError("kind", "unknown edge kind")
	}
	for i, id := range [2]int64{leftID, rightID} {
		req := &api.Request{Method: http.MethodGet, Path: paths[i] + strconv.FormatInt(id, 10)}
		if _, err := s.sender.Send(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func buildRequest(kind Kind, action Action, leftID, rightID int64) (*api.Request, error) {
	verr := &shared.ValidationError{Fields: map[string]string{}}
	if leftID <= 0 {
		verr.Fields["leftId"] = "must be greater than 0"
	}
	if rightID <= 0 {
		verr.Fields["rightId"] = "must be greater than 0"
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	var suffix string
	switch action {
	case ActionAssign:
		suffix = "assegna"
	case ActionUnassign:
		suffix = "disassegna"
	default:
		return nil, shared.NewValidationError("action", "must be assign or unassign")
	}

	var base, field string
	switch kind {
	case KindUserRole:
		base, field = "/ruoli/", "ruoloId"
	case KindRolePermission:
		base, field = "/permessi/", "permessoId"
	default:
		return nil, shared.NewValidationError("kind", "unknown edge kind")
	}
	return &api.Request{
		Method: http.MethodPost,
		Path:   base + strconv.FormatInt(leftID, 10) + "/" + suffix,
		Body:   map[string]int64{field: rightID},
	}, nil
}
