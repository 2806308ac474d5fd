// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package workload replays a deterministic allocate/free workload against an allocator.
//
// Request sizes come from a small linear congruential generator so that
// every run, on every platform, issues exactly the same requests.
package workload

import "fmt"

// DefaultSeed is the seed the reference workloads were recorded with.
const DefaultSeed = 7652

// Profile selects the request size distribution.
type Profile int

const (
	// Small issues requests of 1 byte up to 256KB, most of them a few hundred bytes.
	Small Profile = iota + 1
	// Large issues requests of 500 bytes up to 8MB.
	Large
)

// Generator produces pseudo random numbers and request sizes.
type Generator struct {
	seed    uint32
	profile Profile
}

// NewGenerator returns a generator for the given profile.
func NewGenerator(p Profile, seed uint32) *Generator {
	return &Generator{seed: seed, profile: p}
}

// Rand returns the next pseudo random number.
func (g *Generator) Rand() int {
	mod := uint32(1095976)
	if g.profile == Small {
		mod = 1771875
	}
	g.seed = (g.seed*2416 + 374441) % mod
	return int(g.seed)
}

// Size returns the next request size. It is always > 0.
func (g *Generator) Size() int {
	k := g.Rand()
	if g.profile == Small {
		j := k&3 + k>>2&3 + k>>4&3 + k>>6&3 + k>>8&3 + k>>10&3
		return g.Rand()%(1<<j) + 1
	}
	j := k&3 + k>>2&3 + k>>4&3 + k>>6&3 + k>>4&3 + k>>4&3
	return 500 + g.Rand()%((1<<j)<<5)
}

// Allocator is what Run drives.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(b []byte) error
}

// Report summarizes a run.
type Report struct {
	Iterations int
	Allocs     int
	Frees      int
	// Failures counts Alloc calls that returned an error.
	Failures int
	// Corruptions counts blocks whose first or last byte changed while allocated.
	Corruptions int
	// Requested is the sum of all successful request sizes.
	Requested int
}

// Run performs iterations rounds over slots pointer slots. Each round picks a
// slot, frees the block it holds after checking the marker bytes written into
// its first and last byte, and allocates a new block of a random size into it.
// All blocks still held are freed before Run returns.
func Run(a Allocator, g *Generator, slots, iterations int) (Report, error) {
	var r Report
	held := make([][]byte, slots)
	release := func(k int) error {
		b := held[k]
		if b[0] != byte(k) || b[len(b)-1] != byte(k) {
			r.Corruptions++
		}
		held[k] = nil
		if err := a.Free(b); err != nil {
			return fmt.Errorf("workload: free slot %d: %w", k, err)
		}
		r.Frees++
		return nil
	}

	for i := 0; i < iterations; i++ {
		r.Iterations++
		k := g.Rand() % slots
		if held[k] != nil {
			if err := release(k); err != nil {
				return r, err
			}
		}
		size := g.Size()
		b, err := a.Alloc(size)
		if err != nil {
			r.Failures++
			continue
		}
		b[0], b[len(b)-1] = byte(k), byte(k)
		held[k] = b
		r.Allocs++
		r.Requested += size
	}

	for k := range held {
		if held[k] != nil {
			if err := release(k); err != nil {
				return r, err
			}
		}
	}
	return r, nil
}
