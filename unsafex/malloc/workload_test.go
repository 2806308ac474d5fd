package malloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/buddyarena/internal/testutils/workload"
)

func TestWorkload(t *testing.T) {
	tests := []struct {
		name       string
		profile    workload.Profile
		arena      int
		slots      int
		iterations int
	}{
		{"large", workload.Large, 32 << 20, 2000, 20000},
		{"small", workload.Small, 1 << 20, 200, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewArena(tt.arena, nil)
			require.NoError(t, err)
			defer a.Close()

			g := workload.NewGenerator(tt.profile, workload.DefaultSeed)
			r, err := workload.Run(a, g, tt.slots, tt.iterations)
			require.NoError(t, err)
			t.Logf("%s: %+v", tt.name, r)

			assert.Equal(t, tt.iterations, r.Iterations)
			assert.Zero(t, r.Corruptions)
			assert.NotZero(t, r.Allocs)
			assert.Equal(t, r.Allocs, r.Frees)
			assert.Equal(t, r.Iterations, r.Allocs+r.Failures)

			require.NoError(t, a.Check())
			assert.Len(t, a.Blocks(), 1)
			assert.Equal(t, tt.arena-HeaderSize, a.Available())
		})
	}
}

func TestWorkloadSync(t *testing.T) {
	s := NewSyncAllocator(newTestBuddyAllocator(t, 4<<20))
	g := workload.NewGenerator(workload.Small, workload.DefaultSeed)
	r, err := workload.Run(s, g, 100, 10000)
	require.NoError(t, err)
	assert.Zero(t, r.Corruptions)
	require.NoError(t, s.Check())
}

func BenchmarkWorkload(b *testing.B) {
	a := newTestBuddyAllocator(b, 32<<20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g := workload.NewGenerator(workload.Large, workload.DefaultSeed)
		if _, err := workload.Run(a, g, 2000, 10000); err != nil {
			b.Fatal(err)
		}
	}
}
