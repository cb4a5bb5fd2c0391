package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store query-timing statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	_, pool, err := buildService()
	if err != nil {
		return err
	}
	defer pool.Close()

	snap := pool.Stats()
	fmt.Printf("queries=%d errors=%d total=%s avg=%s\n", snap.QueryCount, snap.ErrorCount, snap.TotalTime, snap.AverageTime)
	if len(snap.SlowQueries) == 0 {
		fmt.Println("no slow queries recorded")
		return nil
	}
	fmt.Println("recent slow queries:")
	for _, sq := range snap.SlowQueries {
		fmt.Printf("  %s %s at %s\n", sq.Label, sq.Duration, sq.At.Format("2006-01-02T15:04:05Z07:00"))
	}
	return nil
}
