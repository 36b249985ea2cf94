package etag

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/dustin/go-humanize"
)

// MaxPartSize is the largest part S3 accepts in a multipart upload.
const MaxPartSize int64 = 5 << 30

// CheckLimits lists the ways a multipart plan breaks the limits S3 puts on
// multipart uploads. An upload made with such a plan would have been rejected,
// so the predicted ETag cannot belong to a real object.
func CheckLimits(p Plan) []string {
	if !p.Multipart {
		return nil
	}

	var warnings []string
	if maxParts := int64(manager.MaxUploadParts); p.Parts() > maxParts {
		warnings = append(warnings, fmt.Sprintf("%d parts exceed the S3 limit of %d parts per upload", p.Parts(), maxParts))
	}
	if minPart := manager.MinUploadPartSize; p.Policy.ChunkSize < minPart {
		warnings = append(warnings, fmt.Sprintf("chunk size %s is below the S3 minimum part size of %s",
			humanize.IBytes(uint64(p.Policy.ChunkSize)), humanize.IBytes(uint64(minPart))))
	}
	if p.Policy.ChunkSize > MaxPartSize {
		warnings = append(warnings, fmt.Sprintf("chunk size %s is above the S3 maximum part size of %s",
			humanize.IBytes(uint64(p.Policy.ChunkSize)), humanize.IBytes(uint64(MaxPartSize))))
	}
	return warnings
}
