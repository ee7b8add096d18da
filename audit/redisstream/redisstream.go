// Package redisstream publishes round-completion events to a Redis
// stream for external subscribers (dashboards, live results pages).
// It implements tabulator.Logger so it can be wired in wherever
// audit.Logger is: the two are composable, not exclusive.
package redisstream

import (
	"fmt"
	"strconv"

	"github.com/gomodule/redigo/redis"

	"github.com/openrcv/tabulator/candidate"
	"github.com/openrcv/tabulator/tally"
)

// Publisher writes one XADD per round-loop milestone to streamKey.
type Publisher struct {
	pool      *redis.Pool
	streamKey string
}

// New builds a Publisher against a Redis instance at addr.
func New(addr, streamKey string) *Publisher {
	pool := &redis.Pool{
		MaxIdle:   3,
		MaxActive: 10,
		Dial:      func() (redis.Conn, error) { return redis.Dial("tcp", addr) },
	}
	return &Publisher{pool: pool, streamKey: streamKey}
}

// Close releases every pooled connection.
func (p *Publisher) Close() error { return p.pool.Close() }

func (p *Publisher) publish(event string, fields ...any) {
	conn := p.pool.Get()
	defer conn.Close()

	args := redis.Args{}.Add(p.streamKey, "*", "event", event)
	args = args.AddFlat(fields)
	if _, err := conn.Do("XADD", args...); err != nil {
		fmt.Printf("redisstream: publishing %s: %v\n", event, err)
	}
}

// Round publishes the locked tally for one round.
func (p *Publisher) Round(round int, rt *tally.RoundTally) {
	p.publish("round", "round", strconv.Itoa(round), "threshold", rt.Threshold.String())
}

// Eliminated publishes a candidate's elimination.
func (p *Publisher) Eliminated(round int, c candidate.Candidate, reason string) {
	p.publish("eliminated", "round", strconv.Itoa(round), "candidate", string(c), "reason", reason)
}

// Elected publishes a candidate's election.
func (p *Publisher) Elected(round int, c candidate.Candidate) {
	p.publish("elected", "round", strconv.Itoa(round), "candidate", string(c))
}

// Fatal publishes the error that halted tabulation.
func (p *Publisher) Fatal(err error) {
	p.publish("fatal", "error", err.Error())
}
