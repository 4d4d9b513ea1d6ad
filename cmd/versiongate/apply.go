package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/client"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a project configuration file",
	Long: `Apply VersionGate project manifests from a YAML file.

Projects are matched by name: a manifest for an unknown name registers a
new project, a manifest for an existing one updates it. Multi-document
files are applied in order.

Examples:
  # Register or update a project
  versiongate apply -f web.yaml

  # Apply several projects at once
  versiongate apply -f projects.yaml`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply (required)")
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

// ProjectManifest is the on-disk representation of a project
type ProjectManifest struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Metadata   ManifestMetadata `yaml:"metadata"`
	Spec       ManifestSpec     `yaml:"spec"`
}

type ManifestMetadata struct {
	Name string `yaml:"name"`
}

type ManifestSpec struct {
	RepoURL      string            `yaml:"repoUrl"`
	Branch       string            `yaml:"branch"`
	BuildContext string            `yaml:"buildContext"`
	AppPort      int               `yaml:"appPort"`
	HealthPath   string            `yaml:"healthPath"`
	Env          map[string]string `yaml:"env"`
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %v", err)
	}
	defer f.Close()

	c := apiClient(cmd)
	decoder := yaml.NewDecoder(f)

	applied := 0
	for {
		var manifest ProjectManifest
		if err := decoder.Decode(&manifest); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to parse YAML: %v", err)
		}

		if manifest.Kind != "Project" {
			return fmt.Errorf("unsupported resource kind: %s", manifest.Kind)
		}
		if err := applyProject(c, &manifest); err != nil {
			return err
		}
		applied++
	}

	if applied == 0 {
		return fmt.Errorf("no manifests found in %s", filename)
	}
	return nil
}

func applyProject(c *client.Client, manifest *ProjectManifest) error {
	name := manifest.Metadata.Name
	if name == "" {
		return fmt.Errorf("project name is required")
	}

	existing, err := c.ResolveProject(name)
	switch {
	case err == nil:
		fmt.Printf("Updating project: %s\n", name)
		if _, err := c.UpdateProject(existing.ID, patchFromSpec(&manifest.Spec)); err != nil {
			return fmt.Errorf("failed to update project: %v", err)
		}
		if manifest.Spec.Env != nil {
			if _, err := c.ReplaceEnv(existing.ID, manifest.Spec.Env); err != nil {
				return fmt.Errorf("failed to update environment: %v", err)
			}
		}
		fmt.Printf("✓ Project updated: %s\n", name)

	case client.IsNotFound(err):
		fmt.Printf("Creating project: %s\n", name)
		project, err := c.CreateProject(client.ProjectSpec{
			Name:         name,
			RepoURL:      manifest.Spec.RepoURL,
			Branch:       manifest.Spec.Branch,
			BuildContext: manifest.Spec.BuildContext,
			AppPort:      manifest.Spec.AppPort,
			HealthPath:   manifest.Spec.HealthPath,
			Env:          manifest.Spec.Env,
		})
		if err != nil {
			return fmt.Errorf("failed to create project: %v", err)
		}
		fmt.Printf("✓ Project created: %s (ID: %s, ports %d/%d)\n",
			name, project.ID, project.BasePort, project.BasePort+1)

	default:
		return err
	}
	return nil
}

// patchFromSpec maps manifest fields onto a patch, leaving omitted fields
// alone so a sparse manifest does not reset server-side defaults
func patchFromSpec(spec *ManifestSpec) client.ProjectPatch {
	patch := client.ProjectPatch{}
	if spec.RepoURL != "" {
		patch.RepoURL = &spec.RepoURL
	}
	if spec.Branch != "" {
		patch.Branch = &spec.Branch
	}
	if spec.BuildContext != "" {
		patch.BuildContext = &spec.BuildContext
	}
	if spec.AppPort != 0 {
		patch.AppPort = &spec.AppPort
	}
	if spec.HealthPath != "" {
		patch.HealthPath = &spec.HealthPath
	}
	return patch
}
