package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ml-audit-platform/internal/core/domain"
	ports "ml-audit-platform/internal/core/ports/output"
)

// MockAuditRunRepo is a mock of AuditRunRepository.
type MockAuditRunRepo struct {
	mock.Mock
}

func (m *MockAuditRunRepo) Save(ctx context.Context, report *domain.AuditReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockAuditRunRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AuditRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditRun), args.Error(1)
}

// MockVulnerabilityScanner is a mock of VulnerabilityScanner.
type MockVulnerabilityScanner struct {
	mock.Mock
	ScannerName string
}

func (m *MockVulnerabilityScanner) Name() string {
	return m.ScannerName
}

func (m *MockVulnerabilityScanner) Scan(ctx context.Context) (domain.VulnerabilityIndex, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.VulnerabilityIndex), args.Error(1)
}

// MockLicenseScanner is a mock of LicenseScanner.
type MockLicenseScanner struct {
	mock.Mock
}

func (m *MockLicenseScanner) Licenses(ctx context.Context) ([]domain.Dependency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Dependency), args.Error(1)
}

// MockOutdatedScanner is a mock of OutdatedScanner.
type MockOutdatedScanner struct {
	mock.Mock
}

func (m *MockOutdatedScanner) Outdated(ctx context.Context) ([]domain.OutdatedPackage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OutdatedPackage), args.Error(1)
}

// MockReportWriter is a mock of ReportWriter.
type MockReportWriter struct {
	mock.Mock
}

func (m *MockReportWriter) Write(ctx context.Context, report *domain.AuditReport) ([]string, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockArtifactStore is a mock of ArtifactStore.
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Fetch(ctx context.Context) (*ports.RawArtifacts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RawArtifacts), args.Error(1)
}

// StubClassifier returns fixed outputs and records every vector it receives.
type StubClassifier struct {
	Label       int
	Probability float64
	NoProba     bool
	Err         error
	Received    [][]float64
}

func (s *StubClassifier) Type() string { return "StubClassifier" }

func (s *StubClassifier) NumFeatures() int { return domain.FeatureCount }

func (s *StubClassifier) Predict(features []float64) (int, error) {
	s.Received = append(s.Received, append([]float64(nil), features...))
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Label, nil
}

func (s *StubClassifier) SupportsProbability() bool { return !s.NoProba }

func (s *StubClassifier) PredictProbability(features []float64) (float64, error) {
	if s.NoProba {
		return 0, domain.ErrProbabilityUnsupported
	}
	return s.Probability, nil
}

// NewStubBundle wraps clf in a bundle with no scaler.
func NewStubBundle(clf ports.Classifier) *ports.ArtifactBundle {
	return &ports.ArtifactBundle{
		Classifier: clf,
		Info: domain.ModelInfo{
			ModelType: clf.Type(),
			NFeatures: domain.FeatureCount,
			Features:  append([]string(nil), domain.FeatureNames...),
			Version:   "test",
		},
		Origin: "stub",
	}
}
