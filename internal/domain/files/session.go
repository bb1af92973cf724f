package files

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/domain/instance"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/providers/filesystem"
)

// Session is the file manager surface the handlers depend on
type Session interface {
	Cd(target string) error
	List(page, pageSize int, pattern string) (*filesystem.Overview, error)
	Mkdir(target string) error
	Copy(ctx context.Context, src, dst string) error
	Move(ctx context.Context, src, dst string) error
	Delete(target string) error
	Edit(target string, text *string) (string, error)
	Zip(ctx context.Context, source string, targets []string, code string) error
	Unzip(ctx context.Context, source, target, code string) error
}

// SessionFactory opens a fresh session bound to an instance root
type SessionFactory func(instanceID string) (Session, error)

// Registry answers whether an instance exists
type Registry interface {
	Exists(id string) bool
}

// NewSessionFactory opens filesystem sessions rooted at each instance's
// working directory
func NewSessionFactory(registry *instance.Registry, opts filesystem.Options) SessionFactory {
	return func(instanceID string) (Session, error) {
		inst, err := registry.Get(instanceID)
		if err != nil {
			return nil, &protocol.NotFoundError{InstanceUUID: instanceID}
		}
		session, err := filesystem.NewSession(inst.Cwd, opts)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}
