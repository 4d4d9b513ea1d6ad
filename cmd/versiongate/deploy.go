package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy PROJECT",
	Short: "Build and release the branch head",
	Long: `Deploy the project's branch head through the blue-green pipeline.

The command blocks until the new version is live or the pipeline has
failed. Interrupting the command does not stop the deploy; use
'versiongate cancel' for that.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient(cmd)
		project, err := c.ResolveProject(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Deploying %s from %s (%s)...\n", project.Name, project.RepoURL, project.Branch)
		result, err := c.Deploy(project.ID)
		if err != nil {
			return fmt.Errorf("deploy failed: %v", err)
		}

		d := result.Deployment
		fmt.Printf("✓ Version %d is live: container %s on port %d\n",
			d.Version, d.ContainerName, d.Port)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel PROJECT",
	Short: "Cancel the in-flight deploy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient(cmd)
		project, err := c.ResolveProject(args[0])
		if err != nil {
			return err
		}
		if err := c.CancelDeploy(project.ID); err != nil {
			return fmt.Errorf("failed to cancel: %v", err)
		}
		fmt.Printf("✓ Cancellation requested for %s\n", project.Name)
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback PROJECT",
	Short: "Restore the previous deployment",
	Long: `Restore the most recently retired deployment, rebuilt from the image
it originally shipped as. The restored version passes the same health
validation as a fresh deploy before traffic switches back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient(cmd)
		project, err := c.ResolveProject(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Rolling back %s...\n", project.Name)
		result, err := c.Rollback(project.ID)
		if err != nil {
			return fmt.Errorf("rollback failed: %v", err)
		}

		fmt.Printf("✓ Version %d restored, version %d retired\n",
			result.RestoredTo, result.RolledBackFrom)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(rollbackCmd)
}
