package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Ask the store to reclaim space and refresh its query planner statistics",
	RunE:  runVacuum,
}

func runVacuum(cmd *cobra.Command, args []string) error {
	_, pool, err := buildService()
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Vacuum(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("vacuum complete")
	return nil
}
