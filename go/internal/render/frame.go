package render

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/makeitmeme/go/internal/session"
)

// Frame is a view serialised for consumers outside the process
type Frame struct {
	View string          `json:"view"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// NewFrame encodes v as a frame stamped with at
func NewFrame(v session.View, at time.Time) (Frame, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to marshal %s view: %w", v.ViewName(), err)
	}
	return Frame{View: v.ViewName(), At: at.UTC(), Data: data}, nil
}

// Multi renders every view to each sink in order
type Multi []session.Renderer

func (m Multi) Render(v session.View) {
	for _, r := range m {
		if r != nil {
			r.Render(v)
		}
	}
}
