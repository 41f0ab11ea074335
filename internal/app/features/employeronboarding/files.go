package employeronboarding

import (
	"net/http"
	"os"
	"strings"

	"github.com/dalemusser/crewpay/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// RequireOwnDocuments guards locally served blobs. Requests under
// prefix+"/entity-documents/<org>/" are allowed only for members of <org>;
// anything else under prefix is not found.
func RequireOwnDocuments(prefix string) func(http.Handler) http.Handler {
	prefix = strings.TrimRight(prefix, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rest, ok := strings.CutPrefix(r.URL.Path, prefix+"/entity-documents/")
			orgHex, _, _ := strings.Cut(rest, "/")
			orgID := authz.UserOrgID(r)
			if !ok || orgID.IsZero() || orgHex != orgID.Hex() || strings.Contains(rest, "..") {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ServeLocalFile serves objects from local storage at prefix+"/<key>".
// Directories are not listed.
func ServeLocalFile(local *storage.Local, prefix string, logger *zap.Logger) http.HandlerFunc {
	prefix = strings.TrimRight(prefix, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := strings.CutPrefix(r.URL.Path, prefix+"/")
		if !ok || key == "" {
			http.NotFound(w, r)
			return
		}
		fullPath, err := local.GetFullPath(key)
		if err != nil {
			logger.Warn("rejected local file path", zap.String("path", key), zap.Error(err))
			http.NotFound(w, r)
			return
		}
		info, err := os.Stat(fullPath)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		// Replaced documents keep their URL shape, so never cache.
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, fullPath)
	}
}
