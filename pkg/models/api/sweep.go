package api

import "github.com/de-tools/snapshot-sweeper/pkg/models/domain"

type SweepResponse struct {
	Report         *domain.SweepReport `json:"report,omitempty"`
	Error          string              `json:"error,omitempty"`
	PendingDeletes int                 `json:"pending_deletes,omitempty"`
}

type RetainSetResponse struct {
	Days []string `json:"days"`
}
