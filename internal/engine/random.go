package engine

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/google/uuid"
)

// RandomData is the persisted state of the random plugin.
type RandomData struct {
	Seed      string `json:"seed"`
	PRNGState []byte `json:"prngstate,omitempty"`
}

// Random is a deterministic source of randomness seeded per match.
// Its state is persisted after every action so that replays agree.
type Random struct {
	data RandomData
	pcg  *rand.PCG
	r    *rand.Rand
	used bool
}

func newRandom(data RandomData) *Random {
	return &Random{data: data}
}

// NewRandom returns a source seeded with seed that is not bound to a match.
func NewRandom(seed string) *Random {
	return newRandom(RandomData{Seed: seed})
}

func (r *Random) source() *rand.Rand {
	if r.r != nil {
		return r.r
	}
	r.pcg = seedPCG(r.data.Seed)
	if len(r.data.PRNGState) > 0 {
		restored := &rand.PCG{}
		if err := restored.UnmarshalBinary(r.data.PRNGState); err == nil {
			r.pcg = restored
		}
	}
	r.r = rand.New(r.pcg)
	return r.r
}

func seedPCG(seed string) *rand.PCG {
	a := fnv.New64a()
	a.Write([]byte(seed))
	b := fnv.New64()
	b.Write([]byte(seed))
	return rand.NewPCG(a.Sum64(), b.Sum64())
}

// Used reports whether any value was drawn.
func (r *Random) Used() bool { return r.used }

func (r *Random) state() RandomData {
	if r.pcg == nil {
		return r.data
	}
	out := RandomData{Seed: r.data.Seed}
	if b, err := r.pcg.MarshalBinary(); err == nil {
		out.PRNGState = b
	}
	return out
}

// Number returns a float in [0, 1).
func (r *Random) Number() float64 {
	r.used = true
	return r.source().Float64()
}

// Die rolls one die with the given number of spots.
func (r *Random) Die(spots int) int {
	if spots <= 0 {
		spots = 6
	}
	return int(r.Number()*float64(spots)) + 1
}

// Dice rolls count dice with the given number of spots.
func (r *Random) Dice(spots, count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = r.Die(spots)
	}
	return out
}

func (r *Random) D4() int  { return r.Die(4) }
func (r *Random) D6() int  { return r.Die(6) }
func (r *Random) D8() int  { return r.Die(8) }
func (r *Random) D10() int { return r.Die(10) }
func (r *Random) D12() int { return r.Die(12) }
func (r *Random) D20() int { return r.Die(20) }

// Perm returns a random permutation of [0, n).
func (r *Random) Perm(n int) []int {
	r.used = true
	return r.source().Perm(n)
}

// Shuffle returns a shuffled copy of deck.
func Shuffle[T any](r *Random, deck []T) []T {
	out := make([]T, 0, len(deck))
	for _, i := range r.Perm(len(deck)) {
		out = append(out, deck[i])
	}
	return out
}

type randomPlugin struct{}

func (randomPlugin) Name() string { return randomPluginName }

func (randomPlugin) Setup(pc PluginContext) any {
	seed := pc.Game.Seed
	if seed == "" {
		seed = uuid.NewString()
	}
	return RandomData{Seed: seed}
}

func (randomPlugin) API(pc PluginContext) any {
	data, _ := DecodePluginData[RandomData](pc.Data)
	return newRandom(data)
}

func (randomPlugin) Flush(pc PluginContext) any {
	if r, ok := pc.API.(*Random); ok {
		return r.state()
	}
	return pc.Data
}

func (randomPlugin) NoClient(pc PluginContext) bool {
	r, ok := pc.API.(*Random)
	return ok && r.Used()
}

// PlayerView hides the seed from players.
func (randomPlugin) PlayerView(PluginContext) any { return nil }

// MatchSeed returns the seed the random plugin of s was set up with.
func MatchSeed(s State) string {
	data, _ := DecodePluginData[RandomData](s.Plugins[randomPluginName].Data)
	return data.Seed
}
