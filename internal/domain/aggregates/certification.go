package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/domain/credentials"
)

var CertificationAggregateContract = Contract{
	Name:             "Credentials.CertificationAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns once-per-attempt certificate and achievement issuance for passing final attempts.",
}

// CertificationAggregate issues credentials for a completed, passing final
// attempt. Issuance happens at most once per attempt.
//
// Write method failures return *aggregates.Error with codes:
// CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type CertificationAggregate interface {
	Aggregate

	IssueCertificate(ctx context.Context, in IssueCredentialsInput) (IssueCertificateResult, error)
	IssueAchievements(ctx context.Context, in IssueCredentialsInput) (IssueAchievementsResult, error)

	// Certify issues the certificate and achievements in one transaction.
	Certify(ctx context.Context, in IssueCredentialsInput) (CertifyResult, error)
}

type IssueCredentialsInput struct {
	AttemptID uuid.UUID
	// StudentID, when set, must own the attempt.
	StudentID uuid.UUID
	Now       time.Time
}

type IssueCertificateResult struct {
	Certificate *credentials.Certificate
}

type IssueAchievementsResult struct {
	Achievements []*credentials.Achievement
}

type CertifyResult struct {
	Certificate  *credentials.Certificate
	Achievements []*credentials.Achievement
}
