package domain

import (
	"regexp"
	"strings"
)

const (
	backupSourcePrefix  = "awsbackup:"
	backupJobPrefix     = "awsbackup:job-"
	snapshotArnDelim    = ":snapshot:"
	maxTaskIdentifier   = 60
	maxIdentifierPrefix = 23
)

// ExportRequest carries everything the export collaborator needs to copy one
// snapshot to object storage. Built once per accepted snapshot, immutable.
type ExportRequest struct {
	SourceARN    string
	ResourceKind ResourceKind
	TaskID       string
	Bucket       string
	Prefix       string
	RoleARN      string
	KMSKeyID     string
}

// SourceFilter checks that a notification's source identifier is consistent
// with its claimed snapshot type and refers to the configured database.
// Automated snapshots of instance <db> are named rds:<db>-YYYY-MM-DD-hh-mm;
// backup service copies are named awsbackup:job-<uuid>; everything else that
// is neither is a manual snapshot.
type SourceFilter struct {
	automated *regexp.Regexp
}

func NewSourceFilter(dbName string) SourceFilter {
	pattern := `^rds:` + regexp.QuoteMeta(dbName) + `-\d{4}-\d{2}-\d{2}-\d{2}-\d{2}$`
	return SourceFilter{automated: regexp.MustCompile(pattern)}
}

func (f SourceFilter) Matches(snapshotType SnapshotType, sourceID string) bool {
	switch snapshotType {
	case SnapshotAutomated:
		return f.automated.MatchString(sourceID)
	case SnapshotManual:
		return !f.automated.MatchString(sourceID) && !strings.HasPrefix(sourceID, backupSourcePrefix)
	case SnapshotBackup:
		return strings.HasPrefix(sourceID, backupJobPrefix)
	}

	return false
}

// SnapshotIDFromARN extracts the snapshot identifier from a snapshot ARN,
// e.g. arn:aws:rds:us-west-2:123456789012:snapshot:awsbackup:job-1234.
func SnapshotIDFromARN(arn string) string {
	i := strings.LastIndex(arn, snapshotArnDelim)
	if i < 0 {
		return ""
	}

	return arn[i+len(snapshotArnDelim):]
}

// TaskIdentifier derives the export task name from a snapshot identifier
// prefix and the delivery message id. The provider caps task names at 60
// characters and rejects consecutive hyphens.
func TaskIdentifier(base string, messageID string) string {
	if len(base) > maxIdentifierPrefix {
		base = base[:maxIdentifierPrefix]
	}

	id := strings.ReplaceAll(base+"-"+messageID, "--", "-")
	if len(id) > maxTaskIdentifier {
		id = id[:maxTaskIdentifier]
	}

	return strings.TrimSuffix(id, "-")
}
