package ingest

import "math/rand"

// UserAgentPool rotates through a fixed pool of realistic desktop and
// mobile user-agent strings, mirroring the Python UserAgentPool's
// get_random.
type UserAgentPool struct {
	agents []string
	rnd    *rand.Rand
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 13; SM-S908B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
}

// NewUserAgentPool builds a pool over the builtin desktop/mobile agent
// list, seeded so repeated runs within a process don't correlate.
func NewUserAgentPool(seed int64) *UserAgentPool {
	return &UserAgentPool{agents: defaultUserAgents, rnd: rand.New(rand.NewSource(seed))}
}

// Next returns one user-agent string, chosen uniformly at random.
func (p *UserAgentPool) Next() string {
	return p.agents[p.rnd.Intn(len(p.agents))]
}
