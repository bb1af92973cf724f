package files

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/domain/filetask"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/protocol"
)

// Event names handled by the service
const (
	Namespace = "file/"

	EventList     = "file/list"
	EventStatus   = "file/status"
	EventTasks    = "file/tasks"
	EventMkdir    = "file/mkdir"
	EventCopy     = "file/copy"
	EventMove     = "file/move"
	EventDelete   = "file/delete"
	EventEdit     = "file/edit"
	EventCompress = "file/compress"
)

const instanceKey = "instanceUuid"

// Service dispatches file events to instance sessions
type Service struct {
	registry  Registry
	sessions  SessionFactory
	admission *filetask.Controller
	runner    *filetask.Runner
	logger    *zap.Logger
}

// NewService creates a file service
func NewService(registry Registry, sessions SessionFactory, admission *filetask.Controller, runner *filetask.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry:  registry,
		sessions:  sessions,
		admission: admission,
		runner:    runner,
		logger:    logger,
	}
}

// Register installs the validation middleware and every file handler
func (s *Service) Register(r *protocol.Router) {
	r.Use(s.ValidateInstance)

	r.On(EventList, s.list)
	r.On(EventStatus, s.status)
	r.On(EventTasks, s.tasks)
	r.On(EventMkdir, s.mkdir)
	r.On(EventCopy, s.copy)
	r.On(EventMove, s.move)
	r.On(EventDelete, s.delete)
	r.On(EventEdit, s.edit)
	r.On(EventCompress, s.compress)
}

// ValidateInstance rejects file events that reference an unknown instance.
// Events outside the file namespace pass through untouched.
func (s *Service) ValidateInstance(c *protocol.Context, next protocol.HandlerFunc) (interface{}, error) {
	if !strings.HasPrefix(c.Event, Namespace) {
		return next(c)
	}

	var req instanceRequest
	if len(c.Raw) > 0 {
		if err := sonic.Unmarshal(c.Raw, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidPayload, err)
		}
	}
	id, ok := req.reference()
	if !ok || !s.registry.Exists(id) {
		s.logger.Debug("Rejected file event for unknown instance",
			zap.String("event", c.Event),
			zap.String("instance", id),
		)
		return nil, &protocol.NotFoundError{InstanceUUID: id}
	}

	c.Set(instanceKey, id)
	return next(c)
}

// StatusResult reports in-flight archive tasks
type StatusResult struct {
	InstanceFileTask int `json:"instanceFileTask"`
	GlobalFileTask   int `json:"globalFileTask"`
}

func (s *Service) list(c *protocol.Context) (interface{}, error) {
	var req ListRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	session, err := s.sessions(req.InstanceUUID)
	if err != nil {
		return nil, err
	}
	if err := session.Cd(req.Target); err != nil {
		return nil, err
	}
	return session.List(req.Page, req.PageSize, req.Pattern)
}

func (s *Service) status(c *protocol.Context) (interface{}, error) {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	return &StatusResult{
		InstanceFileTask: s.admission.InstanceCount(req.InstanceUUID),
		GlobalFileTask:   s.admission.GlobalCount(),
	}, nil
}

func (s *Service) tasks(c *protocol.Context) (interface{}, error) {
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	active := s.runner.Active(req.InstanceUUID)
	if active == nil {
		active = []*filetask.Task{}
	}
	return active, nil
}

func (s *Service) mkdir(c *protocol.Context) (interface{}, error) {
	var req TargetRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	session, err := s.sessions(req.InstanceUUID)
	if err != nil {
		return nil, err
	}
	if err := session.Mkdir(req.Target); err != nil {
		return nil, err
	}
	return true, nil
}

func (s *Service) copy(c *protocol.Context) (interface{}, error) {
	return s.pairs(c, func(session Session) pairFunc { return session.Copy })
}

func (s *Service) move(c *protocol.Context) (interface{}, error) {
	return s.pairs(c, func(session Session) pairFunc { return session.Move })
}

// pairs applies op to every [src, dst] pair in order. The first failure
// stops the batch; pairs already applied are not rolled back.
func (s *Service) pairs(c *protocol.Context, op func(Session) pairFunc) (interface{}, error) {
	var req PairsRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	session, err := s.sessions(req.InstanceUUID)
	if err != nil {
		return nil, err
	}
	apply := op(session)
	for i, pair := range req.Targets {
		if err := apply(c, pair[0], pair[1]); err != nil {
			return nil, fmt.Errorf("pair %d of %d: %w", i+1, len(req.Targets), err)
		}
	}
	return true, nil
}

func (s *Service) delete(c *protocol.Context) (interface{}, error) {
	var req TargetsRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	session, err := s.sessions(req.InstanceUUID)
	if err != nil {
		return nil, err
	}
	for _, target := range req.Targets {
		target := target
		s.runner.Go(c, req.InstanceUUID, filetask.KindDelete, target, nil, func(context.Context) error {
			return session.Delete(target)
		})
	}
	return true, nil
}

func (s *Service) edit(c *protocol.Context) (interface{}, error) {
	var req EditRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	session, err := s.sessions(req.InstanceUUID)
	if err != nil {
		return nil, err
	}
	result, err := session.Edit(req.Target, req.Text)
	if err != nil {
		return nil, err
	}
	if result != "" {
		return result, nil
	}
	return true, nil
}

func (s *Service) compress(c *protocol.Context) (interface{}, error) {
	var req CompressRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	targets, err := req.targetList()
	if err != nil {
		return nil, err
	}

	kind := filetask.KindCompress
	if req.Type != CompressTypeZip {
		kind = filetask.KindDecompress
		if len(targets) != 1 {
			return nil, fmt.Errorf("%w: decompress takes exactly one destination, got %d",
				protocol.ErrInvalidPayload, len(targets))
		}
	}

	session, err := s.sessions(req.InstanceUUID)
	if err != nil {
		return nil, err
	}

	token, err := s.admission.TryAcquire(req.InstanceUUID)
	if err != nil {
		s.logger.Info("Archive task rejected",
			zap.String("instance", req.InstanceUUID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}

	s.runner.Go(c, req.InstanceUUID, kind, req.Source, token, func(ctx context.Context) error {
		if kind == filetask.KindCompress {
			return session.Zip(ctx, req.Source, targets, req.Code)
		}
		return session.Unzip(ctx, req.Source, targets[0], req.Code)
	})
	return true, nil
}

type pairFunc func(ctx context.Context, src, dst string) error
