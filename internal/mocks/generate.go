// Package mocks provides mock implementations for testing the analysis system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository
// and adapter interfaces. The mocks are generated using go:generate directives and provide a
// fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockJobRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Generate mock for JobRepository interface from internal/core package.
// This creates MockJobRepository with methods for all JobRepository interface methods:
// Create, GetByID, ReserveNext, UpdateProgress, Finalize
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/srijeethT/cytomind/internal/core JobRepository

// Generate mock for ReportRepository interface from internal/core package.
// This creates MockReportRepository with methods for all ReportRepository interface methods:
// Create, GetByJobID
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=report_repository_mock.go github.com/srijeethT/cytomind/internal/core ReportRepository

// Generate mock for PatientRepository interface from internal/core package.
// This creates MockPatientRepository with methods for all PatientRepository interface methods:
// GetByID
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=patient_repository_mock.go github.com/srijeethT/cytomind/internal/core PatientRepository

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=cache_repository_mock.go github.com/srijeethT/cytomind/internal/core CacheRepository

// Generate mock for Classifier interface from internal/core package.
// This creates MockClassifier with methods for all Classifier interface methods:
// Classify, Health
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=classifier_mock.go github.com/srijeethT/cytomind/internal/core Classifier

// Generate mock for Renderer interface from internal/core package.
// This creates MockRenderer with methods for all Renderer interface methods:
// Render
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=renderer_mock.go github.com/srijeethT/cytomind/internal/core Renderer
