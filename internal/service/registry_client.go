package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lims-assign/internal/apperr"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PatientWorkOrder is the registration service's view of what a patient is
// owed: the package tests and individually added tests, already expanded and
// deduplicated on the registration side.
type PatientWorkOrder struct {
	PatientID   string   `json:"patientId"`
	PatientName string   `json:"patientName"`
	ProjectID   string   `json:"projectId"` // empty when the patient is in no project
	TestIDs     []string `json:"testIds"`
}

// WorkOrderResolver resolves a patient's owed tests. Patient registration is
// an external collaborator; this service never stores patients itself.
type WorkOrderResolver interface {
	GetWorkOrder(ctx context.Context, patientID string) (*PatientWorkOrder, error)
}

// RegistryClient is the HTTP client of the patient registration service.
type RegistryClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewRegistryClient(baseURL string, timeout time.Duration, logger *zap.Logger) *RegistryClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")

	return &RegistryClient{
		httpClient: client,
		logger:     logger,
	}
}

var _ WorkOrderResolver = (*RegistryClient)(nil)

func (c *RegistryClient) GetWorkOrder(ctx context.Context, patientID string) (*PatientWorkOrder, error) {
	var workOrder PatientWorkOrder

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("patientId", patientID).
		SetResult(&workOrder).
		Get("/registry/api/v1/patients/{patientId}/work-order")
	if err != nil {
		c.logger.Error("registry call failed",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("registry request failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return &workOrder, nil
	case http.StatusNotFound:
		return nil, apperr.NotFound("patient %s not found", patientID)
	default:
		c.logger.Error("registry returned unexpected status",
			zap.String("patient_id", patientID),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode())
	}
}
