package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/maxvaer/proxycheck/internal/store"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "List working proxies from the most recent stored run",
	Long: `Print ip:port for every proxy of the most recent run stored with
--database-url, best first. Only proxies with at least --min-success
successful targets are listed (at least 1).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if opts.DatabaseURL == "" {
			return errors.New("--database-url is required")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := store.Open(ctx, opts.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		rows, err := db.LatestAlive(ctx, max(opts.MinSuccess, 1))
		if err != nil {
			return err
		}
		for _, r := range rows {
			fmt.Fprintln(os.Stdout, net.JoinHostPort(r.IP, strconv.Itoa(r.Port)))
		}
		return nil
	},
}
