/*
Package storage provides BoltDB-backed state persistence for VersionGate.

The storage package implements the Store interface using BoltDB as the
underlying database, providing ACID transactions for projects and
deployments. All data is serialized as JSON and stored in per-type
buckets; the database is a single file, so engine state travels in one
artifact with no external dependencies.

# Architecture

	┌──────────────── BOLTDB STORAGE ────────────────┐
	│                                                │
	│  BoltStore                                     │
	│  - File: <databasePath>, e.g. versiongate.db   │
	│  - Transactions: ACID with fsync               │
	│                                                │
	│  Buckets                                       │
	│  ┌──────────────────────────────┐              │
	│  │ projects     key: project ID │              │
	│  │ deployments  key: deploy ID  │              │
	│  └──────────────────────────────┘              │
	│                                                │
	└────────────────────────────────────────────────┘

Values are JSON documents keyed by UUID. There are no secondary index
buckets: lookups by name, webhook secret, project, or status scan the
bucket and filter. At the scale the engine targets (tens of projects,
hundreds of deployment records), a bucket scan costs microseconds and
keeps the write paths free of index-maintenance bugs.

# Transactional Invariants

Three rules are enforced inside single Update transactions rather than in
handler code, so no interleaving of requests can violate them:

  - Project names are unique. CreateProject and UpdateProject scan for
    collisions in the same transaction that writes the record.
  - Base ports never collide. A project created without an explicit
    BasePort is assigned max(existing)+2, starting at BasePortFloor
    (3100), inside the create transaction. Each project owns exactly two
    consecutive host ports.
  - Status flips are atomic. MarkDeploymentStatus reads, mutates, and
    writes the record in one transaction, so a pipeline write and a
    watcher write cannot interleave between a read and a put. The last
    writer wins, which the pipeline's retire ordering relies on.

# Queries

Beyond CRUD, the store answers the questions the pipeline asks:

	ActiveDeployment(projectID)         // the one live version, nil when none
	DeployingDeployment(projectID)      // the in-flight version, nil when none
	NextVersion(projectID)              // max(version)+1, failed attempts included
	PreviousRolledBack(projectID, v)    // newest ROLLED_BACK below version v

PreviousRolledBack is the rollback selector: it deliberately ignores
FAILED records (nothing to restore) and records at or above the current
version (rolling "back" never moves forward).

# Usage

	store, err := storage.NewBoltStore("/var/lib/versiongate/versiongate.db")
	if err != nil {
		return err
	}
	defer store.Close()

	active, err := store.ActiveDeployment(project.ID)
	if err != nil {
		return err
	}

Missing records return errdefs.NotFound errors, which the API layer
renders as 404s without translation.

# Concurrency

BoltDB allows one writer and many readers. All Store methods are safe for
concurrent use; writers serialize on the database's internal lock. Calls
return decoded copies, never aliases into the mmap, so callers may mutate
results freely.

# Limitations

  - Single process: BoltDB holds an exclusive file lock. A second engine
    process pointed at the same file blocks at open (5s timeout).
  - Deleting a project cascades to its deployment records in the same
    transaction; container cleanup is the caller's job.
*/
package storage
