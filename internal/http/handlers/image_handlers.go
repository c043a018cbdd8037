package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	repo "github.com/rogerio-castellano/storefront/internal/repo"
)

const (
	maxImageSize      = 2 << 20
	ImagePublicPath   = "/storage/products/"
	sniffLen          = 512
	multipartOverhead = 64 << 10
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadProductImageHandler godoc
// @Summary Upload a product image
// @Description jpeg, png, webp or gif, at most 2 MiB
// @Tags products
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param image formData file true "Image file"
// @Success 200 {object} ProductResponse
// @Failure 400 {string} string "Invalid image"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id}/image [post]
func UploadProductImageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}
	if _, err := productRepo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "could not fetch product", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+multipartOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image or image too large", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		http.Error(w, "image must be at most 2MB", http.StatusBadRequest)
		return
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		http.Error(w, "could not read image", http.StatusBadRequest)
		return
	}
	ext, ok := imageExtensions[http.DetectContentType(head[:n])]
	if !ok {
		http.Error(w, "image must be jpeg, png, webp or gif", http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "could not read image", http.StatusInternalServerError)
		return
	}

	name := uuid.NewString() + ext
	if err := saveUpload(file, filepath.Join(uploadDir, name)); err != nil {
		log.Printf("❌ Could not store image for product %d: %v", id, err)
		http.Error(w, "could not store image", http.StatusInternalServerError)
		return
	}

	product, err := productRepo.SetImage(r.Context(), id, path.Join(ImagePublicPath, name))
	if err != nil {
		_ = os.Remove(filepath.Join(uploadDir, name))
		http.Error(w, "could not update product", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, toProductResponse(product))
}

func saveUpload(src io.Reader, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	return f.Close()
}
