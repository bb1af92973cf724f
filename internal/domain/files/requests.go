package files

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/protocol"
)

// CompressTypeZip selects compression in a compress request; any other
// value selects decompression
const CompressTypeZip = 1

type instanceRequest struct {
	// Any JSON value; only a string can name an instance
	InstanceUUID interface{} `json:"instanceUuid"`
}

// reference returns the instance id and whether the field was a string
func (r instanceRequest) reference() (string, bool) {
	switch v := r.InstanceUUID.(type) {
	case string:
		return v, true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), false
	}
}

// ListRequest is the payload of file/list
type ListRequest struct {
	InstanceUUID string `json:"instanceUuid" binding:"required"`
	Page         int    `json:"page"`
	PageSize     int    `json:"pageSize" binding:"gte=0"`
	Target       string `json:"target"`
	Pattern      string `json:"pattern"`
}

// StatusRequest is the payload of file/status and file/tasks
type StatusRequest struct {
	InstanceUUID string `json:"instanceUuid" binding:"required"`
}

// TargetRequest is the payload of file/mkdir
type TargetRequest struct {
	InstanceUUID string `json:"instanceUuid" binding:"required"`
	Target       string `json:"target" binding:"required"`
}

// PairsRequest is the payload of file/copy and file/move,
// e.g. [["a.txt","b.txt"],["c.txt","d.txt"]]
type PairsRequest struct {
	InstanceUUID string     `json:"instanceUuid" binding:"required"`
	Targets      [][]string `json:"targets" binding:"required,dive,len=2,dive,required"`
}

// TargetsRequest is the payload of file/delete
type TargetsRequest struct {
	InstanceUUID string   `json:"instanceUuid" binding:"required"`
	Targets      []string `json:"targets" binding:"required,dive,required"`
}

// EditRequest is the payload of file/edit. A missing text reads the file.
type EditRequest struct {
	InstanceUUID string  `json:"instanceUuid" binding:"required"`
	Target       string  `json:"target" binding:"required"`
	Text         *string `json:"text"`
}

// CompressRequest is the payload of file/compress. Targets lists the
// files to compress, or names the destination directory when
// decompressing (a string or a one-element list).
type CompressRequest struct {
	InstanceUUID string      `json:"instanceUuid" binding:"required"`
	Source       string      `json:"source" binding:"required"`
	Targets      interface{} `json:"targets" binding:"required"`
	Type         int         `json:"type"`
	Code         string      `json:"code"`
}

// targetList normalizes Targets to a list of paths
func (r *CompressRequest) targetList() ([]string, error) {
	switch v := r.Targets.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%w: targets is empty", protocol.ErrInvalidPayload)
		}
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("%w: targets[%d] must be a non-empty string", protocol.ErrInvalidPayload, i)
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: targets is empty", protocol.ErrInvalidPayload)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: targets must be a string or a list of strings", protocol.ErrInvalidPayload)
}
