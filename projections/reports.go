package projections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"example.com/hotswap/services/recovery/config"
	"example.com/hotswap/services/recovery/handlers"
	"example.com/hotswap/services/recovery/models"
)

// ReportProjector persists rendered fault reports to the database and
// indexes the full decision in Elasticsearch for searching
type ReportProjector struct {
	db            *gorm.DB
	elasticClient *elasticsearch.Client
	cfg           config.Config
}

// NewReportProjector creates a new report projector
func NewReportProjector(db *gorm.DB, elasticClient *elasticsearch.Client, cfg config.Config) *ReportProjector {
	return &ReportProjector{
		db:            db,
		elasticClient: elasticClient,
		cfg:           cfg,
	}
}

// SaveReport stores one recovery decision and its rendered report
func (p *ReportProjector) SaveReport(ctx context.Context, decision handlers.Decision) error {
	record := models.FaultReport{
		SnapshotID:  decision.SnapshotID,
		AggregateID: decision.AggregateID,
		ErrorType:   string(decision.ErrorType),
		Severity:    decision.Severity,
		Strategy:    string(decision.Strategy),
		Automatic:   decision.AutoExecutable,
		Report:      decision.Report,
		CreatedAt:   decision.DecidedAt,
	}

	if err := p.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save fault report in database: %w", err)
	}

	decisionDoc, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	index := FormatIndex(FaultReportsIndex, p.cfg)
	res, err := p.elasticClient.Index(
		index,
		bytes.NewReader(decisionDoc),
		p.elasticClient.Index.WithDocumentID(decision.SnapshotID),
		p.elasticClient.Index.WithRefresh("true"),
		p.elasticClient.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index fault report in Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index fault report in Elasticsearch: %s", res.String())
	}

	log.Info().
		Str("snapshotID", decision.SnapshotID).
		Str("aggregateID", decision.AggregateID).
		Msg("Fault report persisted")

	return nil
}
