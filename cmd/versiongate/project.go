package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := apiClient(cmd).ListProjects()
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No projects registered.")
			return nil
		}

		fmt.Printf("%-20s %-14s %-11s %s\n", "NAME", "BRANCH", "PORTS", "REPOSITORY")
		for _, p := range projects {
			ports := fmt.Sprintf("%d/%d", p.BasePort, p.BasePort+1)
			fmt.Printf("%-20s %-14s %-11s %s\n", p.Name, p.Branch, ports, p.RepoURL)
		}
		return nil
	},
}

var projectGetCmd = &cobra.Command{
	Use:   "get PROJECT",
	Short: "Show a project's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := apiClient(cmd).ResolveProject(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Name:          %s\n", p.Name)
		fmt.Printf("ID:            %s\n", p.ID)
		fmt.Printf("Repository:    %s (branch %s)\n", p.RepoURL, p.Branch)
		fmt.Printf("Build context: %s\n", p.BuildContext)
		fmt.Printf("App port:      %d\n", p.AppPort)
		fmt.Printf("Slot ports:    %d (blue) / %d (green)\n", p.BasePort, p.BasePort+1)
		fmt.Printf("Health path:   %s\n", p.HealthPath)
		fmt.Printf("Webhook path:  /api/v1/webhooks/%s\n", p.WebhookSecret)
		fmt.Printf("Created:       %s\n", humanize.Time(p.CreatedAt))

		if len(p.Env) > 0 {
			keys := make([]string, 0, len(p.Env))
			for k := range p.Env {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Println("Environment:")
			for _, k := range keys {
				fmt.Printf("  %s=%s\n", k, p.Env[k])
			}
		}
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT",
	Short: "Delete a project and tear down its containers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient(cmd)
		p, err := c.ResolveProject(args[0])
		if err != nil {
			return err
		}
		if err := c.DeleteProject(p.ID); err != nil {
			return fmt.Errorf("failed to delete project: %v", err)
		}
		fmt.Printf("✓ Project deleted: %s\n", p.Name)
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectGetCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	rootCmd.AddCommand(projectCmd)
}
