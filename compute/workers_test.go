package compute

import (
	"sync/atomic"
	"testing"
)

func TestParallelRowsCoversAllRows(t *testing.T) {
	const n = 97
	var seen [n]atomic.Bool
	parallelRows(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			seen[i].Store(true)
		}
	})
	for i := 0; i < n; i++ {
		if !seen[i].Load() {
			t.Errorf("row %d was never visited", i)
		}
	}
}

func TestParallelRowsEmpty(t *testing.T) {
	called := false
	parallelRows(0, func(lo, hi int) { called = true })
	if called {
		t.Error("parallelRows(0, ...) should not invoke fn")
	}
}

func TestConfigureWorkersOnlyOnce(t *testing.T) {
	workersConfigured.Store(false)
	workerCount.Store(0)
	defer func() {
		workersConfigured.Store(false)
		workerCount.Store(0)
	}()

	if err := ConfigureWorkers(4); err != nil {
		t.Fatalf("first ConfigureWorkers() error = %v", err)
	}
	if numWorkers() != 4 {
		t.Errorf("numWorkers() = %d, want 4", numWorkers())
	}
	if err := ConfigureWorkers(8); err == nil {
		t.Error("second ConfigureWorkers() should fail")
	}
	if numWorkers() != 4 {
		t.Errorf("numWorkers() after rejected reconfigure = %d, want 4", numWorkers())
	}
}

func TestConfigureWorkersRejectsNonPositive(t *testing.T) {
	workersConfigured.Store(false)
	workerCount.Store(0)
	defer func() {
		workersConfigured.Store(false)
		workerCount.Store(0)
	}()

	if err := ConfigureWorkers(0); err == nil {
		t.Error("ConfigureWorkers(0) should fail")
	}
	if err := ConfigureWorkers(-1); err == nil {
		t.Error("ConfigureWorkers(-1) should fail")
	}
}
