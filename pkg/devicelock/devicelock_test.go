package devicelock

import (
	"sync"
	"testing"
)

func TestAcquireSerializesSameDevice(t *testing.T) {
	r := NewRegistry()

	const workers = 8
	const rounds = 100

	active := 0
	maxActive := 0
	var check sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				release := r.Acquire("emulator-5554")

				check.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				check.Unlock()

				check.Lock()
				active--
				check.Unlock()

				release()
			}
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("expected at most 1 active holder, saw %d", maxActive)
	}
}

func TestAcquireIndependentDevices(t *testing.T) {
	r := NewRegistry()

	releaseA := r.Acquire("device-a")
	done := make(chan struct{})
	go func() {
		releaseB := r.Acquire("device-b")
		releaseB()
		close(done)
	}()

	<-done // must not deadlock while device-a is held
	releaseA()
}
