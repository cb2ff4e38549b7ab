// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package peaks

import (
	"encoding/binary"
	"math/rand/v2"

	farm "github.com/dgryski/go-farm"
)

// trialSource hands out the generator of one (feature, trial) pair. It is
// not safe for concurrent use; each worker owns one.
type trialSource struct {
	seed uint64
	pcg  *rand.PCG
	r    *rand.Rand
	buf  [16]byte
}

func newTrialSource(seed uint64) *trialSource {
	pcg := rand.NewPCG(seed, seed)
	return &trialSource{seed: seed, pcg: pcg, r: rand.New(pcg)}
}

// trialSeed is a pure function of (seed, feature, trial).
func trialSeed(seed uint64, feature, trial int, buf *[16]byte) uint64 {
	binary.LittleEndian.PutUint64(buf[:8], uint64(feature))
	binary.LittleEndian.PutUint64(buf[8:], uint64(trial))
	return farm.Hash64WithSeed(buf[:], seed)
}

// trial reseeds the generator for the given trial and returns it. The
// returned *rand.Rand is reused by the next call.
func (s *trialSource) trial(feature, trial int) *rand.Rand {
	s.pcg.Seed(trialSeed(s.seed, feature, trial, &s.buf), s.seed)
	return s.r
}
