// Package timeofday provides a built-in tool that reports the current
// server time. It gives models without a clock a way to answer
// time-sensitive questions.
package timeofday

import (
	"context"
	"encoding/json"
	"time"

	"github.com/parleychat/parley/pkg/tools"
)

// Name is the function name offered to the model.
const Name = "timeOfDay"

// New returns the timeOfDay function. The now argument supplies the clock;
// pass nil to use time.Now.
func New(now func() time.Time) *tools.Function {
	if now == nil {
		now = time.Now
	}
	return &tools.Function{
		Name:        Name,
		Description: "Returns the current date and time, with the timezone.",
		Parameters:  json.RawMessage(`{"type":"object","properties":{},"required":[]}`),
		Invoke: func(ctx context.Context, inv tools.Invocation) (string, error) {
			return now().Format(time.RFC1123Z), nil
		},
	}
}
