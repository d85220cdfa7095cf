// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/uecfg/uecfg/cmd/uecfg/cmd"
	"github.com/uecfg/uecfg/internal/lock"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var contention *lock.ContentionError
		if errors.As(err, &contention) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
