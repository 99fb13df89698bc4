package application

import "expvar"

// opCounters is published under /debug/vars as "user_operations".
var opCounters = expvar.NewMap("user_operations")

func recordOp(name string) { opCounters.Add(name, 1) }
