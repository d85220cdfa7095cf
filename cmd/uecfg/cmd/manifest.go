// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/uecfg/uecfg/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Inspect the manifest catalog",
}

var manifestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List manifests in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := catalogDir()
		available := manifest.Available(dir)
		if len(available) == 0 {
			fmt.Printf("No manifests found in %s\n", dir)
			return nil
		}
		ids := make([]string, 0, len(available))
		for id := range available {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			m, err := manifest.LoadPath(available[id])
			if err != nil {
				fmt.Printf("%s: invalid (%v)\n", id, err)
				continue
			}
			fmt.Printf("%s: engine %s, fingerprint %.12s\n", id, m.TargetVersion, m.Fingerprint)
		}
		return nil
	},
}

func init() {
	manifestCmd.AddCommand(manifestListCmd)
	rootCmd.AddCommand(manifestCmd)
}
