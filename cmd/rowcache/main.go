// Command rowcache runs queries into row set snapshots, inspects them and
// writes their pending changes back to the database.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rzpsarthak13/rowcache/pkg/rowcache"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, rowcache.ErrSyncConflict) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
