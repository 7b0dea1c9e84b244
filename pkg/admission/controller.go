package admission

import "sync"

// ConnectionController enforces the global and per-source-IP inbound
// connection caps from spec §4.1. A connection is admitted only when both
// the global and the per-IP permit are acquired; if the per-IP acquire
// fails after the global one succeeded, the global permit is released
// before reporting rejection, so a rejected connection never leaks a
// global slot (spec §8: globalCount never exceeds the configured cap).
type ConnectionController struct {
	global *Semaphore

	mu        sync.Mutex
	perIP     map[string]*Semaphore
	perIPCap  int
}

// NewConnectionController creates a controller enforcing globalCap total
// connections and perIPCap connections from any single source IP.
func NewConnectionController(globalCap, perIPCap int) *ConnectionController {
	return &ConnectionController{
		global:   NewSemaphore(globalCap),
		perIP:    make(map[string]*Semaphore),
		perIPCap: perIPCap,
	}
}

// TryAdmit attempts to admit a new connection from ip. On success it
// returns a release function that must be called exactly once when the
// connection closes. On failure it returns ok=false and a nil release.
func (c *ConnectionController) TryAdmit(ip string) (release func(), ok bool) {
	if !c.global.Acquire() {
		return nil, false
	}

	ipSem := c.semaphoreFor(ip)
	if !ipSem.Acquire() {
		c.global.Release()
		return nil, false
	}

	return func() {
		ipSem.Release()
		c.global.Release()
		c.evictIfIdle(ip, ipSem)
	}, true
}

// evictIfIdle drops the per-IP semaphore entry once it has no holders, so
// the map doesn't grow without bound as distinct client IPs come and go.
func (c *ConnectionController) evictIfIdle(ip string, sem *Semaphore) {
	if sem.Current() != 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.perIP[ip]; ok && cur == sem && sem.Current() == 0 {
		delete(c.perIP, ip)
	}
}

func (c *ConnectionController) semaphoreFor(ip string) *Semaphore {
	c.mu.Lock()
	defer c.mu.Unlock()
	sem, ok := c.perIP[ip]
	if !ok {
		sem = NewSemaphore(c.perIPCap)
		c.perIP[ip] = sem
	}
	return sem
}

// GlobalCount returns the current number of admitted connections.
func (c *ConnectionController) GlobalCount() int64 {
	return c.global.Current()
}

// PerIPCount returns the current number of admitted connections from ip.
func (c *ConnectionController) PerIPCount(ip string) int64 {
	c.mu.Lock()
	sem, ok := c.perIP[ip]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return sem.Current()
}
