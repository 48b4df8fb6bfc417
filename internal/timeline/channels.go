package timeline

import (
	"math"
	"math/rand/v2"

	"github.com/ngmaloney/weatherlink/internal/models"
)

// SoundLibrary is the read-only view of the sound collection used by a build
type SoundLibrary interface {
	Definitions() []models.SoundDefinition
	Sounds(category string) []models.SoundEntry
}

// channel is the scheduling state of one sound category
type channel struct {
	nextFree float64
	playlist []models.SoundEntry
}

// Channels allocates sound playback per category so that sounds of the same
// category never overlap and each category's files are drawn without
// repetition until all have played. A Channels value lives for one build.
type Channels struct {
	lib   SoundLibrary
	rng   *rand.Rand
	state map[string]*channel
}

// NewChannels creates an empty allocator drawing from lib
func NewChannels(lib SoundLibrary, rng *rand.Rand) *Channels {
	return &Channels{
		lib:   lib,
		rng:   rng,
		state: make(map[string]*channel),
	}
}

func (c *Channels) get(category string) *channel {
	ch, ok := c.state[category]
	if !ok {
		ch = &channel{}
		c.state[category] = ch
	}
	return ch
}

// Free reports whether category has nothing playing at time t
func (c *Channels) Free(category string, t int) bool {
	return float64(t) >= c.get(category).nextFree
}

// NextFree returns the earliest time a new sound may start in category
func (c *Channels) NextFree(category string) float64 {
	return c.get(category).nextFree
}

// Draw pops the next sound of category, reshuffling the full set when the
// playlist is exhausted. It returns false when the category has no sounds.
func (c *Channels) Draw(category string) (models.SoundEntry, bool) {
	ch := c.get(category)
	if len(ch.playlist) == 0 {
		all := c.lib.Sounds(category)
		if len(all) == 0 {
			return models.SoundEntry{}, false
		}
		ch.playlist = make([]models.SoundEntry, len(all))
		for i, j := range c.rng.Perm(len(all)) {
			ch.playlist[i] = all[j]
		}
	}
	last := len(ch.playlist) - 1
	entry := ch.playlist[last]
	ch.playlist = ch.playlist[:last]
	return entry, true
}

// Reserve marks category busy until start+duration
func (c *Channels) Reserve(category string, start int, durationS float64) {
	c.get(category).nextFree = float64(start) + durationS
}

// earliestStart is the first whole second at or after the category's next free time
func (c *Channels) earliestStart(category string) int {
	return int(math.Ceil(c.get(category).nextFree))
}
