// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	emitter ids.ShortID
	name    string
}

func (e testEvent) Emitter() ids.ShortID { return e.emitter }
func (e testEvent) Name() string { return e.name }

func TestLogDrain(t *testing.T) {
	require := require.New(t)

	var l Log
	addr := ids.GenerateTestShortID()
	l.Emit(testEvent{emitter: addr, name: "a"})
	l.Emit(testEvent{emitter: addr, name: "b"})
	require.Equal(2, l.Len())

	drained := l.Drain()
	require.Len(drained, 2)
	require.Equal("a", drained[0].Name())
	require.Equal("b", drained[1].Name())
	require.Zero(l.Len())
	require.Empty(l.Drain())

	l.Emit(testEvent{emitter: addr, name: "c"})
	l.Discard()
	require.Zero(l.Len())
}

func TestDispatcher(t *testing.T) {
	require := require.New(t)

	d := NewDispatcher(log.NewNoOpLogger())

	var first, second []string
	d.Subscribe(SubscriberFunc(func(e Event) { first = append(first, e.Name()) }))
	d.Dispatch([]Event{testEvent{name: "early"}})
	d.Subscribe(SubscriberFunc(func(e Event) { second = append(second, e.Name()) }))
	d.Dispatch([]Event{testEvent{name: "x"}, testEvent{name: "y"}})

	require.Equal([]string{"early", "x", "y"}, first)
	require.Equal([]string{"x", "y"}, second)
}
