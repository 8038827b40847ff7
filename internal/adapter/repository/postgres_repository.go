// Package repository implements ports.Store against PostgreSQL via
// database/sql and lib/pq, modeled directly on the teacher pack's
// postgres_repository.go adapters (health-monitor, audit-log,
// control-layer all follow the same db+logger, ExecContext/QueryContext,
// ON CONFLICT upsert shape).
package repository

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/yash02896/graphix/internal/core/ports"
	"github.com/yash02896/graphix/internal/domain"
)

// PostgresStore implements ports.Store for PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger ports.Logger
}

// Open connects to databaseURL and verifies connectivity with a ping.
func Open(databaseURL string, logger ports.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, logger), nil
}

// New wraps an already-opened *sql.DB.
func New(db *sql.DB, logger ports.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// CreateNetworksIfMissing idempotently writes the canonicalization table.
func (s *PostgresStore) CreateNetworksIfMissing(ctx context.Context, networks []domain.Network) error {
	for _, n := range networks {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO networks (name, caip2_id)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, n.Name, n.Caip2)
		if err != nil {
			s.logger.Error("failed to create network", "error", err, "network", n.Name)
			return fmt.Errorf("create network %s: %w", n.Name, err)
		}
	}
	return nil
}

// WriteIndexers upserts indexer rows by address when an indexer has one,
// converging two registrations of the same on-chain address under
// different transient ids onto a single row (the address-is-canonical
// identity rule IndexerID.Equal encodes). Indexers without an address
// upsert by id instead, the same as memstore.Store.WriteIndexers's
// Key()-based semantics.
func (s *PostgresStore) WriteIndexers(ctx context.Context, indexers []domain.IndexerHandle) error {
	for _, i := range indexers {
		if i.Address == nil {
			_, err := s.db.ExecContext(ctx, `
				INSERT INTO indexers (id, address)
				VALUES ($1, NULL)
				ON CONFLICT (id) DO UPDATE SET address = EXCLUDED.address
			`, i.ID)
			if err != nil {
				s.logger.Error("failed to write indexer", "error", err, "indexer", i.ID)
				return fmt.Errorf("write indexer %s: %w", i.ID, err)
			}
			continue
		}

		hexAddr := "0x" + hex.EncodeToString(i.Address[:])

		res, err := s.db.ExecContext(ctx, `UPDATE indexers SET id = $1 WHERE address = $2`, i.ID, hexAddr)
		if err != nil {
			s.logger.Error("failed to update indexer by address", "error", err, "indexer", i.ID)
			return fmt.Errorf("update indexer %s by address: %w", i.ID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected for indexer %s: %w", i.ID, err)
		}
		if rows > 0 {
			continue
		}

		// No row carries this address yet; upsert by id, which also
		// covers this address's first-ever write.
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO indexers (id, address)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET address = EXCLUDED.address
		`, i.ID, hexAddr)
		if err != nil {
			s.logger.Error("failed to write indexer", "error", err, "indexer", i.ID)
			return fmt.Errorf("write indexer %s: %w", i.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) WriteGraphNodeVersions(ctx context.Context, versions map[domain.IndexerID]ports.VersionResult) error {
	for id, result := range versions {
		if result.Err != nil {
			continue
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO graph_node_versions (indexer_id, version, commit)
			VALUES ($1, $2, $3)
			ON CONFLICT (indexer_id) DO UPDATE SET
				version = EXCLUDED.version,
				commit = EXCLUDED.commit
		`, id.ID, result.Version.Version, result.Version.Commit)
		if err != nil {
			s.logger.Error("failed to write graph-node version", "error", err, "indexer", id.ID)
			return fmt.Errorf("write graph-node version for %s: %w", id.ID, err)
		}
	}
	return nil
}

// WritePois upserts by (indexer, deployment, block.number), keeping the
// most recent hash via ON CONFLICT DO UPDATE.
func (s *PostgresStore) WritePois(ctx context.Context, pois []domain.ProofOfIndexing, liveness domain.PoiLiveness) error {
	for _, p := range pois {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO proofs_of_indexing (indexer_id, deployment, block_number, block_hash, poi, liveness, observed_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (indexer_id, deployment, block_number) DO UPDATE SET
				block_hash = EXCLUDED.block_hash,
				poi = EXCLUDED.poi,
				liveness = EXCLUDED.liveness,
				observed_at = EXCLUDED.observed_at
		`, p.Indexer.ID, string(p.Deployment), p.Block.Number, blockHashParam(p.Block), p.Poi.EncodeHex(), liveness.String())
		if err != nil {
			s.logger.Error("failed to write poi", "error", err, "indexer", p.Indexer.ID, "deployment", p.Deployment)
			return fmt.Errorf("write poi: %w", err)
		}
	}
	return nil
}

func blockHashParam(b domain.BlockPointer) *string {
	if b.Hash == nil {
		return nil
	}
	h := "0x" + hex.EncodeToString(b.Hash[:])
	return &h
}

func (s *PostgresStore) SubmitDivergenceInvestigationRequest(ctx context.Context, req domain.DivergenceInvestigationRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO divergence_investigation_requests (id, indexer_a_id, indexer_b_id, deployment, upper_block_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, req.ID, req.IndexerA.ID, req.IndexerB.ID, string(req.Deployment), req.UpperBlockNumber, req.CreatedAt)
	if err != nil {
		s.logger.Error("failed to submit divergence investigation request", "error", err)
		return fmt.Errorf("submit divergence investigation request: %w", err)
	}
	return nil
}

// PollDivergenceInvestigationRequests fetches and deletes every pending
// request so a single request is only ever handed to one poller.
func (s *PostgresStore) PollDivergenceInvestigationRequests(ctx context.Context) ([]domain.DivergenceInvestigationRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin poll transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, indexer_a_id, indexer_b_id, deployment, upper_block_number, created_at
		FROM divergence_investigation_requests
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("poll divergence investigation requests: %w", err)
	}

	var requests []domain.DivergenceInvestigationRequest
	var ids []string
	for rows.Next() {
		var req domain.DivergenceInvestigationRequest
		var indexerA, indexerB string
		if err := rows.Scan(&req.ID, &indexerA, &indexerB, &req.Deployment, &req.UpperBlockNumber, &req.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan divergence investigation request: %w", err)
		}
		req.IndexerA = domain.IndexerID{ID: indexerA}
		req.IndexerB = domain.IndexerID{ID: indexerB}
		requests = append(requests, req)
		ids = append(ids, req.ID)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM divergence_investigation_requests WHERE id = $1`, id); err != nil {
			return nil, fmt.Errorf("delete polled request %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit poll transaction: %w", err)
	}
	return requests, nil
}

func (s *PostgresStore) WriteDivergenceInvestigationReport(ctx context.Context, report domain.DivergenceInvestigationReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO poi_cross_check_reports (
			indexer_a_id, indexer_b_id, deployment, first_divergent_block, last_common_block, status, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, report.IndexerA.ID, report.IndexerB.ID, string(report.Deployment), report.FirstDivergentBlock.Number,
		lastCommonParam(report.LastCommonBlock), report.Status.String(), report.CompletedAt)
	if err != nil {
		s.logger.Error("failed to write divergence investigation report", "error", err)
		return fmt.Errorf("write divergence investigation report: %w", err)
	}
	return nil
}

func lastCommonParam(b *domain.BlockPointer) *uint64 {
	if b == nil {
		return nil
	}
	return &b.Number
}

func (s *PostgresStore) EarliestBlockNumber(ctx context.Context, indexer domain.IndexerID, deployment domain.SubgraphDeployment) (uint64, bool, error) {
	var earliest sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(block_number)
		FROM proofs_of_indexing
		WHERE indexer_id = $1 AND deployment = $2
	`, indexer.ID, string(deployment)).Scan(&earliest)
	if err != nil {
		s.logger.Error("failed to read earliest block number", "error", err, "indexer", indexer.ID, "deployment", deployment)
		return 0, false, fmt.Errorf("read earliest block number: %w", err)
	}
	if !earliest.Valid {
		return 0, false, nil
	}
	return uint64(earliest.Int64), true, nil
}

var _ ports.Store = (*PostgresStore)(nil)
