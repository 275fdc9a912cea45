// Package archive serves the exports saved from the dashboard: a listing
// page, single-file downloads and a zip of the whole export directory.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apphttp "palmopsim/internal/http"
	"palmopsim/internal/services/storage"
	"palmopsim/internal/templates"
)

var (
	renderer *templates.Renderer
	store    *storage.Storage
	logger   = zap.NewNop()
)

var contentTypes = map[string]string{
	".csv":  "text/csv; charset=utf-8",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".json": "application/json",
}

// Initialize sets up the archive package with required dependencies
func Initialize(r *templates.Renderer, s *storage.Storage, l *zap.Logger) {
	renderer = r
	store = s
	if l != nil {
		logger = l
	}
}

// RegisterRoutes registers all export archive routes
func RegisterRoutes(r chi.Router) {
	r.Get("/exports", handleList)
	r.Get("/exports/backup.zip", handleBackup)
	r.Get("/exports/files/{name}", handleDownload)
	r.Delete("/exports/files/{name}", handleDelete)
}

func handleList(w http.ResponseWriter, r *http.Request) {
	files, err := store.List()
	if err != nil {
		apphttp.RenderError(w, logger, "Failed to list exports: "+err.Error(), http.StatusInternalServerError)
		return
	}

	locked := false
	for _, f := range files {
		if f.Encrypted && !store.IsEncrypting() {
			locked = true
		}
	}

	apphttp.RenderTemplate(w, renderer, "base", map[string]interface{}{
		"Title":      "Exports",
		"ActiveTab":  "exports",
		"Files":      files,
		"Directory":  store.BaseDir(),
		"Encrypting": store.IsEncrypting(),
		"Locked":     locked,
	})
}

// plainName is the download name of an export, without the .age suffix
func plainName(name string) string {
	return strings.TrimSuffix(name, storage.EncryptedSuffix)
}

func handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	data, err := store.ReadExport(name)
	switch {
	case errors.Is(err, storage.ErrLocked):
		apphttp.RenderError(w, logger, "This export is encrypted and the server has no passphrase", http.StatusLocked)
		return
	case errors.Is(err, os.ErrNotExist):
		apphttp.RenderError(w, logger, "Export not found", http.StatusNotFound)
		return
	case err != nil:
		apphttp.RenderError(w, logger, err.Error(), http.StatusBadRequest)
		return
	}

	filename := plainName(name)
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		ct = "application/octet-stream"
	}
	apphttp.Attachment(w, ct, filename)
	w.Write(data)
}

func handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := store.Remove(name); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		apphttp.RenderError(w, logger, "Failed to delete export: "+err.Error(), status)
		return
	}

	logger.Info("export deleted", zap.String("name", name))
	// htmx swaps the table row with this empty body
	w.WriteHeader(http.StatusOK)
}

// handleBackup streams every export as one zip. Encrypted files are
// decrypted when the server holds the passphrase and copied as-is otherwise.
func handleBackup(w http.ResponseWriter, r *http.Request) {
	files, err := store.List()
	if err != nil {
		apphttp.RenderError(w, logger, "Failed to list exports: "+err.Error(), http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("palmopsim_exports_%s.zip", time.Now().Format("20060102_150405"))
	apphttp.Attachment(w, "application/zip", filename)

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, f := range files {
		name := f.Name
		data, err := store.ReadExport(f.Name)
		if errors.Is(err, storage.ErrLocked) {
			data, err = os.ReadFile(f.Path)
		} else if err == nil {
			name = plainName(f.Name)
		}
		if err != nil {
			// headers are already sent
			logger.Error("backup entry failed", zap.String("name", f.Name), zap.Error(err))
			return
		}

		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			logger.Error("backup entry failed", zap.String("name", f.Name), zap.Error(err))
			return
		}
		if _, err := entry.Write(data); err != nil {
			logger.Error("backup entry failed", zap.String("name", f.Name), zap.Error(err))
			return
		}
	}

	logger.Info("export backup sent", zap.Int("files", len(files)))
}
