package job

import (
	"strings"

	"github.com/target/mmk-sweeper/internal/domain/model"
)

// IsExpiredFailure reports whether a failed record looks like it failed because it
// expired. This is a best-effort classification over free-text store metadata:
// the reason and exception message are matched case-insensitively against "expired",
// the exception type case-sensitively against "Expired" (type names are Pascal-cased).
// An absent payload counts as expired.
func IsExpiredFailure(j *model.FailedJob) bool {
	if j == nil {
		return true
	}
	if containsFold(j.Reason, "expired") || containsFold(j.ExceptionMessage, "expired") {
		return true
	}
	return strings.Contains(j.ExceptionType, "Expired")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
