package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// recordFixture is one record in a fixture file: the payload returned for
// the initial load and one payload per BAC.
type recordFixture struct {
	Initial *DashboardPayload            `json:"initial"`
	Scopes  map[string]*DashboardPayload `json:"scopes"`
}

// fileQueryService serves payloads from a JSON fixture keyed by record id.
type fileQueryService struct {
	records map[string]recordFixture
}

func loadFixtures(path string) (map[string]recordFixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records map[string]recordFixture
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return records, nil
}

func newFileQueryService(path string) (*fileQueryService, error) {
	records, err := loadFixtures(path)
	if err != nil {
		return nil, err
	}
	return &fileQueryService{records: records}, nil
}

func (s *fileQueryService) InitialData(ctx context.Context, recordID string) (*DashboardPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, ok := s.records[recordID]
	if !ok || record.Initial == nil {
		return nil, notFound("no dashboard data for record %s", recordID)
	}
	return record.Initial, nil
}

func (s *fileQueryService) DataForBAC(ctx context.Context, recordID, bac string) (*DashboardPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	record, ok := s.records[recordID]
	if !ok {
		return nil, notFound("no dashboard data for record %s", recordID)
	}
	payload, ok := record.Scopes[bac]
	if !ok || payload == nil {
		return nil, notFound("no dashboard data for BAC %s", bac)
	}
	return payload, nil
}
