package job

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTransition = errors.New("invalid transition")

// Actor roles as carried in access tokens.
const (
	ActorUser  = "user"
	ActorTech  = "tech"
	ActorAdmin = "admin"
)

type Transition struct {
	From  Status
	To    Status
	Actor string
}

var transitions = []Transition{
	{From: StatusPending, To: StatusInProgress, Actor: ActorTech},
	{From: StatusPending, To: StatusInProgress, Actor: ActorAdmin},
	{From: StatusPending, To: StatusDeclined, Actor: ActorTech},
	{From: StatusPending, To: StatusDeclined, Actor: ActorAdmin},
	{From: StatusPending, To: StatusCancelled, Actor: ActorUser},
	{From: StatusPending, To: StatusCancelled, Actor: ActorTech},
	{From: StatusPending, To: StatusCancelled, Actor: ActorAdmin},
	{From: StatusInProgress, To: StatusCompleted, Actor: ActorUser},
	{From: StatusInProgress, To: StatusCompleted, Actor: ActorTech},
	{From: StatusInProgress, To: StatusCompleted, Actor: ActorAdmin},
	{From: StatusInProgress, To: StatusCancelled, Actor: ActorUser},
	{From: StatusInProgress, To: StatusCancelled, Actor: ActorAdmin},
}

type transitionKey struct {
	from  Status
	to    Status
	actor string
}

var transitionSet = func() map[transitionKey]struct{} {
	m := make(map[transitionKey]struct{}, len(transitions))
	for _, t := range transitions {
		m[transitionKey{t.From, t.To, t.Actor}] = struct{}{}
	}
	return m
}()

// CanTransition returns nil when actor may move a job from one status to
// the other, and an ErrInvalidTransition wrap otherwise.
func CanTransition(from, to Status, actor string) error {
	if _, ok := transitionSet[transitionKey{from, to, actor}]; ok {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s not allowed for %s (allowed from %s: %s)",
		ErrInvalidTransition, from, to, actor, from, describe(NextStatuses(from)))
}

// NextStatuses lists every status reachable from s by any actor.
func NextStatuses(s Status) []Status {
	var out []Status
	seen := map[Status]bool{}
	for _, t := range transitions {
		if t.From == s && !seen[t.To] {
			seen[t.To] = true
			out = append(out, t.To)
		}
	}
	return out
}

func describe(ss []Status) string {
	if len(ss) == 0 {
		return "none"
	}
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
