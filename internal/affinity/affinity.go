// Package affinity pins the calling goroutine's OS thread to one CPU.
package affinity

import "runtime"

// CPUFor returns the CPU a worker with the given index is pinned to.
func CPUFor(worker int) int {
	n := runtime.NumCPU()
	if n <= 0 || worker < 0 {
		return 0
	}
	return worker % n
}

// Pin locks the calling goroutine to its OS thread and restricts that
// thread to cpu. The returned function unlocks the thread. Pinning is
// best effort; a failure leaves the goroutine locked but unpinned.
func Pin(cpu int) (func(), error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, setAffinity(cpu)
}
