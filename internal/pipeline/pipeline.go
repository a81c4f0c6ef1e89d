package pipeline

import (
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/connector"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/logger"
	"github.com/k4liel/prefeitura-tibau-do-sul/internal/store"
)

// ExercicioReferencia is the exercise year the snapshot files and live
// queries refer to.
const ExercicioReferencia = 2025

// Pipeline drives every ingestion path: legacy snapshot files, live
// portal syncs and reprocessing. All writes go through the storage
// interfaces, so the same code runs against Postgres and the in-memory
// fake.
type Pipeline struct {
	storage *store.Storage
	logger  *logger.Logger
	client  *connector.Client
	tracker *Tracker
}

func New(storage *store.Storage, log *logger.Logger, client *connector.Client) *Pipeline {
	return &Pipeline{
		storage: storage,
		logger:  log,
		client:  client,
		tracker: NewTracker(storage, log),
	}
}

// Tracker exposes the pipeline's run tracker for callers that manage
// runs around their own work (the health monitor's sweep, tests).
func (p *Pipeline) Tracker() *Tracker {
	return p.tracker
}
