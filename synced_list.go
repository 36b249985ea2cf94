package main

import (
	"sync"

	"go.uber.org/multierr"
)

// syncedList collects the files that failed, and why, from concurrent workers.
type syncedList struct {
	list []string
	err  error
	sync.Mutex
}

func (sl *syncedList) add(item string, err error) {
	sl.Lock()
	sl.list = append(sl.list, item)
	sl.err = multierr.Append(sl.err, err)
	sl.Unlock()
}
