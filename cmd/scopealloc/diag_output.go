package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"scopealloc/internal/diag"
	"scopealloc/internal/driver"
)

// keepCodes drops every diagnostic whose id (e.g. SCP4003) is not in codes.
// An empty list keeps everything.
func keepCodes(res *driver.Result, codes []string) {
	if len(codes) == 0 {
		return
	}
	want := make([]string, 0, len(codes))
	for _, c := range codes {
		want = append(want, strings.ToUpper(strings.TrimSpace(c)))
	}
	for i := range res.Files {
		res.Files[i].Bag.Filter(func(d diag.Diagnostic) bool {
			return slices.Contains(want, d.Code.ID())
		})
	}
}

// printDropped tells the user how many diagnostics the limit hid.
func printDropped(w io.Writer, bag *diag.Bag) {
	if bag.Dropped() == 0 {
		return
	}
	fmt.Fprintf(w, "... %d more diagnostics not shown (limit %d, see --max-diagnostics)\n", bag.Dropped(), bag.Cap())
}
