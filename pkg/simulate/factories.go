package simulate

import (
	"fmt"
	"math"

	"github.com/resetline-protocol/resetline-go/pkg/board"
)

func init() {
	board.RegisterDriver("counter", counterFactory)
	board.RegisterDriver("pulse", func(spec board.DeviceSpec) (any, error) {
		return NewPulse(), nil
	})
	board.RegisterDriver("latch", func(spec board.DeviceSpec) (any, error) {
		return NewLatch(), nil
	})
}

func counterFactory(spec board.DeviceSpec) (any, error) {
	start, err := intParam(spec.Params, "start", 0)
	if err != nil {
		return nil, err
	}
	if start < math.MinInt32 || start > math.MaxInt32 {
		return nil, fmt.Errorf("param %q out of range: %d", "start", start)
	}
	return NewCounter(int32(start)), nil
}

func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("param %q: expected integer, got %T", key, v)
	}
	return n, nil
}
