package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor_VisitsEveryIndexOnce(t *testing.T) {
	configs := map[string]Config{
		"default":    DefaultConfig(),
		"sequential": Sequential(),
		"wide":       {Enabled: true, NumWorkers: 16, MinChunkSize: 1},
		"chunked":    {Enabled: true, NumWorkers: 3, MinChunkSize: 4},
		"zero":       {Enabled: true},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			const n = 37
			hits := make([]int32, n)
			var calls atomic.Int32

			For(n, func(i int) {
				atomic.AddInt32(&hits[i], 1)
				calls.Add(1)
			}, cfg)

			assert.Equal(t, int32(n), calls.Load())
			for i, h := range hits {
				assert.Equal(t, int32(1), h, "index %d", i)
			}
		})
	}
}

func TestFor_Empty(t *testing.T) {
	called := false
	For(0, func(int) { called = true }, DefaultConfig())
	assert.False(t, called)
}
