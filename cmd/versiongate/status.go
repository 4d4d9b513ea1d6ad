package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const historyShown = 5

var statusCmd = &cobra.Command{
	Use:   "status PROJECT",
	Short: "Show live deployment state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient(cmd)
		project, err := c.ResolveProject(args[0])
		if err != nil {
			return err
		}
		status, err := c.Status(project.ID)
		if err != nil {
			return err
		}

		fmt.Printf("Project:    %s\n", status.Project.Name)
		if status.InFlight {
			fmt.Println("Deploy:     in progress")
		}

		active := status.ActiveDeployment
		if active == nil {
			fmt.Println("Status:     no active deployment")
			return nil
		}

		fmt.Printf("Status:     ACTIVE since %s\n", humanize.Time(active.UpdatedAt))
		fmt.Printf("Version:    %d (%s slot)\n", active.Version, strings.ToLower(string(active.Color)))
		fmt.Printf("Container:  %s\n", active.ContainerName)
		fmt.Printf("Image:      %s\n", active.ImageTag)
		if status.RoutedPort != 0 {
			fmt.Printf("Traffic:    port %d\n", status.RoutedPort)
		} else {
			fmt.Println("Traffic:    not routed")
		}

		// Live resource usage is best effort: a container that died a
		// moment ago should not make status itself fail
		if stats, err := c.Metrics(project.ID); err == nil {
			fmt.Printf("CPU:        %.1f%%\n", stats.CPUPercent)
			fmt.Printf("Memory:     %s of %s (%.1f%%)\n",
				humanize.Bytes(stats.MemUsedBytes), humanize.Bytes(stats.MemLimitBytes), stats.MemPercent)
		}

		deployments, err := c.Deployments(project.ID)
		if err != nil || len(deployments) == 0 {
			return nil
		}
		if len(deployments) > historyShown {
			deployments = deployments[:historyShown]
		}

		fmt.Println("\nRecent deployments:")
		for _, d := range deployments {
			line := fmt.Sprintf("  v%-4d %-12s %s", d.Version, d.Status, humanize.Time(d.CreatedAt))
			if d.ErrorMessage != "" {
				line += " (" + d.ErrorMessage + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs PROJECT",
	Short: "Print the active container's recent log output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tail, _ := cmd.Flags().GetInt("tail")

		c := apiClient(cmd)
		project, err := c.ResolveProject(args[0])
		if err != nil {
			return err
		}
		logs, err := c.Logs(project.ID, tail)
		if err != nil {
			return err
		}

		fmt.Print(logs.Logs)
		if logs.Logs != "" && !strings.HasSuffix(logs.Logs, "\n") {
			fmt.Println()
		}
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent engine activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		evts, err := apiClient(cmd).Events(limit)
		if err != nil {
			return err
		}
		if len(evts) == 0 {
			fmt.Println("No recent events.")
			return nil
		}

		for _, e := range evts {
			fmt.Printf("%-14s %-28s %s\n", humanize.Time(e.Timestamp), e.Type, e.Message)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().Int("tail", 100, "Number of log lines to fetch")
	eventsCmd.Flags().Int("limit", 20, "Maximum number of events to show")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(eventsCmd)
}
