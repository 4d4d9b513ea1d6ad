package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/errdefs"
	"github.com/dinexh/ZeroShift-Engine-sub000/pkg/types"
)

var (
	// Bucket names
	bucketProjects    = []byte("projects")
	bucketDeployments = []byte("deployments")
)

// BasePortFloor is the first host port pair handed to a project that
// does not bring its own. Each project consumes two consecutive ports.
const BasePortFloor = 3100

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database at dbPath
func NewBoltStore(dbPath string) (*BoltStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketProjects, bucketDeployments} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Project operations

// CreateProject persists a new project. A zero BasePort is assigned
// inside the same transaction so concurrent creates cannot collide on a
// port pair. Names are enforced unique here, not in the handler, for
// the same reason.
func (s *BoltStore) CreateProject(project *types.Project) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)

		maxBase := 0
		err := b.ForEach(func(k, v []byte) error {
			var existing types.Project
			if err := json.Unmarshal(v, &existing); err != nil {
				return err
			}
			if existing.Name == project.Name {
				return errdefs.Validation("project name %q is already in use", project.Name)
			}
			if existing.BasePort > maxBase {
				maxBase = existing.BasePort
			}
			return nil
		})
		if err != nil {
			return err
		}

		if project.BasePort == 0 {
			project.BasePort = BasePortFloor
			if maxBase > 0 {
				project.BasePort = maxBase + 2
			}
		}

		data, err := json.Marshal(project)
		if err != nil {
			return err
		}
		return b.Put([]byte(project.ID), data)
	})
}

func (s *BoltStore) GetProject(id string) (*types.Project, error) {
	var project types.Project
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		data := b.Get([]byte(id))
		if data == nil {
			return errdefs.NotFound("project", id)
		}
		return json.Unmarshal(data, &project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *BoltStore) GetProjectByName(name string) (*types.Project, error) {
	var found *types.Project
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		return b.ForEach(func(k, v []byte) error {
			var project types.Project
			if err := json.Unmarshal(v, &project); err != nil {
				return err
			}
			if project.Name == name {
				found = &project
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errdefs.NotFound("project", name)
	}
	return found, nil
}

func (s *BoltStore) GetProjectByWebhookSecret(secret string) (*types.Project, error) {
	var found *types.Project
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		return b.ForEach(func(k, v []byte) error {
			var project types.Project
			if err := json.Unmarshal(v, &project); err != nil {
				return err
			}
			if project.WebhookSecret == secret {
				found = &project
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errdefs.NotFound("project", "webhook secret")
	}
	return found, nil
}

func (s *BoltStore) ListProjects() ([]*types.Project, error) {
	var projects []*types.Project
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		return b.ForEach(func(k, v []byte) error {
			var project types.Project
			if err := json.Unmarshal(v, &project); err != nil {
				return err
			}
			projects = append(projects, &project)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects, nil
}

// UpdateProject upserts the record, re-checking name uniqueness against
// every other project
func (s *BoltStore) UpdateProject(project *types.Project) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		if b.Get([]byte(project.ID)) == nil {
			return errdefs.NotFound("project", project.ID)
		}

		err := b.ForEach(func(k, v []byte) error {
			if string(k) == project.ID {
				return nil
			}
			var existing types.Project
			if err := json.Unmarshal(v, &existing); err != nil {
				return err
			}
			if existing.Name == project.Name {
				return errdefs.Validation("project name %q is already in use", project.Name)
			}
			return nil
		})
		if err != nil {
			return err
		}

		data, err := json.Marshal(project)
		if err != nil {
			return err
		}
		return b.Put([]byte(project.ID), data)
	})
}

// DeleteProject removes the project and cascades to its deployments
func (s *BoltStore) DeleteProject(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		projects := tx.Bucket(bucketProjects)
		if projects.Get([]byte(id)) == nil {
			return errdefs.NotFound("project", id)
		}
		if err := projects.Delete([]byte(id)); err != nil {
			return err
		}

		// Collect first: buckets must not be mutated mid-iteration
		deployments := tx.Bucket(bucketDeployments)
		var doomed [][]byte
		err := deployments.ForEach(func(k, v []byte) error {
			var d types.Deployment
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if d.ProjectID == id {
				key := make([]byte, len(k))
				copy(key, k)
				doomed = append(doomed, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range doomed {
			if err := deployments.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Deployment operations

func (s *BoltStore) CreateDeployment(deployment *types.Deployment) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		data, err := json.Marshal(deployment)
		if err != nil {
			return err
		}
		return b.Put([]byte(deployment.ID), data)
	})
}

func (s *BoltStore) GetDeployment(id string) (*types.Deployment, error) {
	var deployment types.Deployment
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		data := b.Get([]byte(id))
		if data == nil {
			return errdefs.NotFound("deployment", id)
		}
		return json.Unmarshal(data, &deployment)
	})
	if err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (s *BoltStore) UpdateDeployment(deployment *types.Deployment) error {
	return s.CreateDeployment(deployment)
}

// MarkDeploymentStatus flips a deployment's status in one transaction,
// so a pipeline write and a watcher write cannot interleave between a
// read and a put
func (s *BoltStore) MarkDeploymentStatus(id string, status types.DeploymentStatus, errorMessage string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		data := b.Get([]byte(id))
		if data == nil {
			return errdefs.NotFound("deployment", id)
		}

		var deployment types.Deployment
		if err := json.Unmarshal(data, &deployment); err != nil {
			return err
		}
		deployment.Status = status
		deployment.ErrorMessage = errorMessage
		deployment.UpdatedAt = time.Now().UTC()

		updated, err := json.Marshal(&deployment)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), updated)
	})
}

func (s *BoltStore) ListDeployments() ([]*types.Deployment, error) {
	deployments, err := s.scanDeployments(func(*types.Deployment) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].CreatedAt.After(deployments[j].CreatedAt)
	})
	return deployments, nil
}

func (s *BoltStore) ListDeploymentsByProject(projectID string) ([]*types.Deployment, error) {
	deployments, err := s.scanDeployments(func(d *types.Deployment) bool {
		return d.ProjectID == projectID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(deployments, func(i, j int) bool {
		return deployments[i].Version > deployments[j].Version
	})
	return deployments, nil
}

func (s *BoltStore) ListDeploymentsByStatus(status types.DeploymentStatus) ([]*types.Deployment, error) {
	return s.scanDeployments(func(d *types.Deployment) bool {
		return d.Status == status
	})
}

func (s *BoltStore) ActiveDeployment(projectID string) (*types.Deployment, error) {
	matches, err := s.scanDeployments(func(d *types.Deployment) bool {
		return d.ProjectID == projectID && d.Status == types.StatusActive
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (s *BoltStore) DeployingDeployment(projectID string) (*types.Deployment, error) {
	matches, err := s.scanDeployments(func(d *types.Deployment) bool {
		return d.ProjectID == projectID && d.Status == types.StatusDeploying
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (s *BoltStore) NextVersion(projectID string) (int, error) {
	matches, err := s.scanDeployments(func(d *types.Deployment) bool {
		return d.ProjectID == projectID
	})
	if err != nil {
		return 0, err
	}
	max := 0
	for _, d := range matches {
		if d.Version > max {
			max = d.Version
		}
	}
	return max + 1, nil
}

func (s *BoltStore) PreviousRolledBack(projectID string, beforeVersion int) (*types.Deployment, error) {
	matches, err := s.scanDeployments(func(d *types.Deployment) bool {
		return d.ProjectID == projectID &&
			d.Status == types.StatusRolledBack &&
			d.Version < beforeVersion
	})
	if err != nil {
		return nil, err
	}

	var best *types.Deployment
	for _, d := range matches {
		if best == nil || d.Version > best.Version {
			best = d
		}
	}
	return best, nil
}

func (s *BoltStore) scanDeployments(keep func(*types.Deployment) bool) ([]*types.Deployment, error) {
	var deployments []*types.Deployment
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		return b.ForEach(func(k, v []byte) error {
			var d types.Deployment
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if keep(&d) {
				deployments = append(deployments, &d)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return deployments, nil
}
