package engine

import (
	"context"

	"github.com/roach88/animeval/internal/anim"
)

// Pass describes one completed world evaluation.
type Pass struct {
	Seq    int64
	Update Update
}

// PassFunc is called on the Player goroutine after each pass, before the
// next update is evaluated. It may read the evaluated properties.
type PassFunc func(Pass)

// Player evaluates a world once per queued update, in order.
//
// Enqueue and Stop are safe from any goroutine. Run must be called from
// exactly one goroutine.
type Player struct {
	engine *Engine
	world  *anim.World
	queue  *updateQueue
	clock  *Clock
	onPass PassFunc
}

// NewPlayer creates a Player for w. onPass may be nil.
func (e *Engine) NewPlayer(w *anim.World, onPass PassFunc) *Player {
	return &Player{
		engine: e,
		world:  w,
		queue:  newUpdateQueue(),
		clock:  NewClock(),
		onPass: onPass,
	}
}

// Enqueue queues u. It returns false once the player is stopped.
func (p *Player) Enqueue(u Update) bool {
	return p.queue.Enqueue(u)
}

// Stop refuses further updates. Run returns after draining the queue.
func (p *Player) Stop() {
	p.queue.Close()
}

// Passes returns the number of passes evaluated so far.
func (p *Player) Passes() int64 {
	return p.clock.Current()
}

// Run evaluates queued updates until the player is stopped and drained, or
// ctx is cancelled.
func (p *Player) Run(ctx context.Context) error {
	log := p.engine.Context().Log()
	log.Debug("player starting", "entities", len(p.world.Entities))

	for {
		if err := ctx.Err(); err != nil {
			p.queue.Close()
			return err
		}
		if u, ok := p.queue.TryDequeue(); ok {
			p.play(u)
			continue
		}

		select {
		case <-ctx.Done():
			log.Debug("player stopping: context cancelled")
			p.queue.Close()
			return ctx.Err()
		case <-p.queue.Wait():
			// The signal channel is closed on Stop, so an empty queue here
			// means the player is done.
			if p.queue.Len() == 0 && p.closed() {
				log.Debug("player stopping: queue drained", "passes", p.clock.Current())
				return nil
			}
		}
	}
}

func (p *Player) closed() bool {
	p.queue.mu.Lock()
	defer p.queue.mu.Unlock()
	return p.queue.closed
}

func (p *Player) play(u Update) {
	mask := u.Mask
	if mask == 0 {
		mask = anim.RecalcAll
	}
	p.engine.evaluateWorld(p.world, u.Time, mask)
	pass := Pass{Seq: p.clock.Next(), Update: u}
	if p.onPass != nil {
		p.onPass(pass)
	}
}
