package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ImageExtensions are the upload formats every supported portal accepts.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

const preloadConcurrency = 4

var ErrNoImagesRoot = errors.New("images folder path is required for this operation")

// ImagePaths lists the images under root/<sku>, sorted by name. When required, a
// missing root, missing folder, or empty folder is an error.
func ImagePaths(root, sku string, required bool) ([]string, error) {
	if strings.TrimSpace(root) == "" {
		if required {
			return nil, ErrNoImagesRoot
		}
		return nil, nil
	}

	folder := filepath.Join(root, sku)
	entries, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if required {
				return nil, fmt.Errorf("image folder not found for SKU %s: %s", sku, folder)
			}
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !ImageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(folder, e.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 && required {
		return nil, fmt.Errorf("no valid images found for SKU %s in %s", sku, folder)
	}
	return paths, nil
}

// PreloadImages resolves image paths for every SKU concurrently. Lookup failures are
// logged and leave the SKU without images; only context cancellation is returned.
func PreloadImages(ctx context.Context, root string, skus []string, logger *zap.Logger) (map[string][]string, error) {
	out := make(map[string][]string, len(skus))
	if strings.TrimSpace(root) == "" || len(skus) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(preloadConcurrency)
	for _, sku := range skus {
		sku := sku
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			paths, err := ImagePaths(root, sku, true)
			if err != nil {
				logger.Warn("Image loading failed.", zap.String("sku", sku), zap.Error(err))
				return nil
			}
			mu.Lock()
			out[sku] = paths
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StoreImages copies sources into root/<productID> as main.<ext>, 1.<ext>, 2.<ext>...
// Unsupported files are skipped but keep their index.
func StoreImages(productID string, sources []string, root string) ([]string, error) {
	if root == "" {
		root = "images"
	}
	target := filepath.Join(root, productID)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image folder: %w", err)
	}

	var stored []string
	for i, src := range sources {
		ext := strings.ToLower(filepath.Ext(src))
		if !ImageExtensions[ext] {
			continue
		}
		name := strconv.Itoa(i) + ext
		if i == 0 {
			name = "main" + ext
		}
		dst := filepath.Join(target, name)
		if err := copyFile(src, dst); err != nil {
			return stored, err
		}
		stored = append(stored, dst)
	}
	if len(stored) == 0 {
		return nil, errors.New("no supported image files were stored")
	}
	return stored, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
