package utils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nfnt/resize"
)

const (
	maxFileSize       = 5 * 1024 * 1024
	compressThreshold = 100 * 1024
	photoWidth        = 800
)

var (
	s3Client *minio.Client
	s3Once   sync.Once
	s3Err    error
)

func objectClient() (*minio.Client, error) {
	s3Once.Do(func() {
		endpoint := os.Getenv("S3_ENDPOINT")
		if endpoint == "" {
			s3Err = fmt.Errorf("S3_ENDPOINT not configured")
			return
		}
		s3Client, s3Err = minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"), ""),
			Secure: true,
		})
	})
	return s3Client, s3Err
}

// SaveProductPhoto compresses an uploaded product photo when it is above the
// threshold and stores it in the object bucket. Returns the public URL.
func SaveProductPhoto(file *multipart.FileHeader, productID string) (string, error) {
	if file.Size > maxFileSize {
		return "", fmt.Errorf("file size exceeds the 5MB limit")
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		return "", fmt.Errorf("unsupported file format: %s", contentType)
	}

	srcFile, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %v", err)
	}
	defer srcFile.Close()

	originalData, err := io.ReadAll(srcFile)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %v", err)
	}

	fileExt := strings.ToLower(filepath.Ext(file.Filename))
	objectName := fmt.Sprintf("products/%s_%d%s", productID, time.Now().Unix(), fileExt)

	var buf bytes.Buffer
	if file.Size >= compressThreshold {
		var img image.Image
		if contentType == "image/png" {
			img, err = png.Decode(bytes.NewReader(originalData))
		} else {
			img, err = jpeg.Decode(bytes.NewReader(originalData))
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode image: %v", err)
		}

		resized := resize.Resize(photoWidth, 0, img, resize.Lanczos3)
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 80}); err != nil {
			return "", fmt.Errorf("failed to encode resized image: %v", err)
		}
	} else {
		buf.Write(originalData)
	}

	client, err := objectClient()
	if err != nil {
		return "", err
	}

	bucket := os.Getenv("S3_BUCKET")
	_, err = client.PutObject(context.Background(), bucket, objectName, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %v", err)
	}

	cdn := os.Getenv("S3_PUBLIC_URL")
	if cdn == "" {
		cdn = fmt.Sprintf("https://%s/%s", os.Getenv("S3_ENDPOINT"), bucket)
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(cdn, "/"), objectName), nil
}
