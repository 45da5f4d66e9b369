package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seslattery/hstsward/internal/config"
	"github.com/seslattery/hstsward/internal/hsts"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known HSTS hosts",
	Long:  `List prints every host in the known-hosts database with its policy scope and expiry.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	dbPath, err := databasePath(cfg)
	if err != nil {
		return err
	}

	store := hsts.Open(dbPath)
	defer store.Close()

	hosts := store.KnownHosts()
	if len(hosts) == 0 {
		fmt.Println("no known HSTS hosts")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tSUBDOMAINS\tEXPIRES")
	for _, h := range hosts {
		name := h.Host
		if h.Port != 0 {
			name = fmt.Sprintf("%s:%d", h.Host, h.Port)
		}
		expires := time.Unix(h.Created+h.MaxAge, 0).UTC().Format(time.RFC3339)
		fmt.Fprintf(w, "%s\t%v\t%s\n", name, h.IncludeSubdomains, expires)
	}
	return w.Flush()
}
