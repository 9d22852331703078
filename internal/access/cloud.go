package access

import "strings"

// Cloud identifies the provider a resource belongs to.
type Cloud string

const (
	CloudAWS   Cloud = "AWS"
	CloudAzure Cloud = "Azure"
	CloudGCP   Cloud = "GCP"
)

// CloudFromResource derives the target cloud from a resource identifier.
// This is a best-effort heuristic, not a strict parse: an AWS-style identifier
// maps to AWS, an Azure-style one to Azure, and anything else falls through to
// GCP. AWS wins when multiple substrings match.
//
// TODO: replace the substring heuristic with a registered-prefix table once
// resource naming is standardized across tenants.
func CloudFromResource(resource string) Cloud {
	r := strings.ToLower(resource)
	switch {
	case strings.Contains(r, "aws"):
		return CloudAWS
	case strings.Contains(r, "azure"):
		return CloudAzure
	default:
		return CloudGCP
	}
}
