// README: Depth-first backtracking search assigning ride requests to drivers.
package scheduling

import (
	"context"
	"fmt"
	"time"
)

// ctxCheckInterval is how many stack pops happen between context checks.
const ctxCheckInterval = 256

// node is one partial schedule. Nodes live in an arena and point at their
// parent, so a partial schedule is the chain from a node back to the root.
// A node at depth k holds the binding for request k-1.
type node struct {
	parent int32
	driver int32
	depth  int32
}

const rootNode = 0

type search struct {
	rule     OverlapRule
	requests []compiledRequest
	arena    []node
	// fits[k*M+d] caches the node-independent part of the predicate.
	fits    []bool
	drivers int
}

// Solve assigns every request to one driver so that no driver holds two
// conflicting rides and every ride lies inside its driver's shift. Requests
// are placed in input order; for each one, drivers are tried in input order
// and the resulting children are explored last-pushed first. The first
// complete schedule found is returned.
//
// An infeasible input yields StatusExhausted and a nil error. Errors are
// reserved for malformed input (ErrInvalidInput) and for searches stopped by
// ctx or Options.MaxNodes (ErrSearchAborted).
func Solve(ctx context.Context, requests []RideRequest, drivers []Driver, opts Options) (Result, error) {
	started := time.Now()
	opts = opts.withDefaults()

	reqs, drvs, err := compile(requests, drivers, opts.Location)
	if err != nil {
		return Result{}, err
	}

	s := &search{
		rule:     opts.Overlap,
		requests: reqs,
		arena:    []node{{parent: -1, driver: -1, depth: 0}},
		fits:     make([]bool, len(reqs)*len(drvs)),
		drivers:  len(drvs),
	}
	for k, r := range reqs {
		for d, drv := range drvs {
			s.fits[k*len(drvs)+d] = withinShift(r, drv) && !(opts.EnforceBreaks && hitsBreak(r, drv))
		}
	}

	res := Result{Status: StatusSearching}
	n := int32(len(reqs))
	stack := []int32{rootNode}
	res.Stats.NodesPushed = 1
	res.Stats.MaxStackDepth = 1

	for len(stack) > 0 {
		if res.Stats.NodesPopped%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, fmt.Errorf("%w: %w", ErrSearchAborted, err)
			}
		}
		if opts.MaxNodes > 0 && res.Stats.NodesPopped >= opts.MaxNodes {
			return Result{}, fmt.Errorf("%w: %w after %d nodes", ErrSearchAborted, ErrNodeLimit, res.Stats.NodesPopped)
		}

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		res.Stats.NodesPopped++

		cur := s.arena[top]
		if cur.depth == n {
			res.Status = StatusSolved
			res.Assignments = s.materialize(top, requests, drivers)
			res.Stats.Elapsed = time.Since(started)
			return res, nil
		}

		k := cur.depth
		for d := 0; d < s.drivers; d++ {
			if s.conflicts(top, k, int32(d)) {
				continue
			}
			s.arena = append(s.arena, node{parent: top, driver: int32(d), depth: k + 1})
			stack = append(stack, int32(len(s.arena)-1))
			res.Stats.NodesPushed++
		}
		if len(stack) > res.Stats.MaxStackDepth {
			res.Stats.MaxStackDepth = len(stack)
		}
	}

	res.Status = StatusExhausted
	res.Stats.Elapsed = time.Since(started)
	return res, nil
}

// conflicts reports whether binding request k to driver d clashes with the
// partial schedule ending at node at.
func (s *search) conflicts(at, k, d int32) bool {
	if !s.fits[int(k)*s.drivers+int(d)] {
		return true
	}
	candidate := s.requests[k].span
	for p := at; p != rootNode; p = s.arena[p].parent {
		nd := s.arena[p]
		if nd.driver != d {
			continue
		}
		if overlaps(s.rule, candidate, s.requests[nd.depth-1].span) {
			return true
		}
	}
	return false
}

func (s *search) materialize(at int32, requests []RideRequest, drivers []Driver) []Assignment {
	out := make([]Assignment, len(requests))
	for p := at; p != rootNode; p = s.arena[p].parent {
		nd := s.arena[p]
		k := nd.depth - 1
		out[k] = Assignment{RideRequest: requests[k], DriverID: drivers[nd.driver].ID}
	}
	return out
}

// Validate reports malformed input without running a search.
func Validate(requests []RideRequest, drivers []Driver, opts Options) error {
	opts = opts.withDefaults()
	_, _, err := compile(requests, drivers, opts.Location)
	return err
}
