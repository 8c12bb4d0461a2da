package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rzpsarthak13/rowcache/pkg/rowcache"
)

var InspectAll bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file|->",
	Short: "Show the settings, counts and pending changes of a snapshot",
	Long: `Show the settings, counts and pending changes of an XML snapshot. Only
changed rows are listed unless --all is given.

Examples:
  rowcache inspect users.xml
  rowcache dump "SELECT * FROM users" | rowcache inspect --all -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot(args[0])
		if err != nil {
			return err
		}
		return printSnapshot(cmd.OutOrStdout(), snap, InspectAll)
	},
}

func init() {
	inspectCmd.Flags().BoolVarP(&InspectAll, "all", "a", false, "List every row, not only changed ones")
}

func readSnapshot(path string) (*rowcache.Snapshot, error) {
	if path == "-" {
		return rowcache.ReadSnapshot(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rowcache.ReadSnapshot(f)
}

func printSnapshot(out io.Writer, snap *rowcache.Snapshot, all bool) error {
	var inserted, updated, deleted int
	for _, row := range snap.Rows {
		if row.Inserted {
			inserted++
		}
		if row.Updated {
			updated++
		}
		if row.Deleted {
			deleted++
		}
	}

	p := snap.Properties
	fmt.Fprintf(out, "table:      %s\n", p.TableName)
	fmt.Fprintf(out, "rows:       %d (inserted %d, updated %d, deleted %d)\n", len(snap.Rows), inserted, updated, deleted)
	fmt.Fprintf(out, "position:   %d\n", snap.Position)
	fmt.Fprintf(out, "page size:  %d, max rows: %d\n", p.PageSize, p.MaxRows)
	fmt.Fprintf(out, "read only:  %t, scrollable: %t, show deleted: %t\n", p.ReadOnly, p.Scrollable, p.ShowDeleted)
	if len(p.KeyNames) > 0 {
		fmt.Fprintf(out, "keys:       %s\n", strings.Join(p.KeyNames, ", "))
	}
	if p.SyncProvider != "" {
		fmt.Fprintf(out, "provider:   %s\n", p.SyncProvider)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := []string{"#", "STATE"}
	for _, col := range snap.Columns {
		header = append(header, col.DisplayLabel())
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for i, row := range snap.Rows {
		state := rowState(row)
		if !all && state == "" {
			continue
		}
		fields := []string{fmt.Sprint(i + 1), state}
		for c, v := range row.Current {
			cell := formatValue(v)
			if c < len(row.Changed) && row.Changed[c] && !row.Inserted {
				cell = fmt.Sprintf("%s -> %s", formatValue(row.Original[c]), cell)
			}
			fields = append(fields, cell)
		}
		fmt.Fprintln(w, strings.Join(fields, "\t"))
	}
	return w.Flush()
}

func rowState(row rowcache.SnapshotRow) string {
	var flags []string
	if row.Inserted {
		flags = append(flags, "inserted")
	}
	if row.Updated {
		flags = append(flags, "updated")
	}
	if row.Deleted {
		flags = append(flags, "deleted")
	}
	return strings.Join(flags, ",")
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(v))
	default:
		return fmt.Sprint(v)
	}
}
