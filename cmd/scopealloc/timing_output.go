package main

import (
	"fmt"
	"io"

	"scopealloc/internal/driver"
)

// printTimings writes the summed phase timings of a run, then the files
// served from the cache.
func printTimings(out io.Writer, res *driver.Result) {
	if out == nil || res == nil {
		return
	}
	total := res.Timing()
	for _, p := range total.Phases {
		fmt.Fprintf(out, "%s %.1f ms\n", p.Name, p.DurationMS)
	}
	fmt.Fprintf(out, "total %.1f ms\n", total.TotalMS)

	cached := 0
	for i := range res.Files {
		if res.Files[i].Cached {
			cached++
		}
	}
	if cached > 0 {
		fmt.Fprintf(out, "cached %d/%d files\n", cached, len(res.Files))
	}
}
