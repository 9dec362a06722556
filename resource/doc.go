// Package resource bounds the background work of a colgo database.
//
// A Controller governs three resources:
//
//   - Workers: concurrent chunk-encoding jobs (weighted semaphore)
//   - Memory: bytes reserved by in-flight encode jobs (weighted semaphore plus counter)
//   - IO: byte throughput of export and import streams (token bucket)
//
// # Usage
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:         4,
//	    MemoryLimitBytes:   256 << 20,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
// A nil *Controller is valid everywhere and imposes no limits.
package resource
