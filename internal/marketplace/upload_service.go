package marketplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"path"
	"time"

	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/ids"
	"wastemarket/mobile/internal/media/sniffer"
	"wastemarket/mobile/internal/media/svg"
	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/storage"
)

const DefaultMaxUploadBytes = 10 << 20

type UploadInput struct {
	Uploader models.Account
	File     io.Reader
	Header   textproto.MIMEHeader
}

type UploadResult struct {
	Key         string
	URL         string
	ContentType string
	Size        int
}

type UploadService struct {
	store    storage.Store
	log      zerolog.Logger
	maxBytes int64
	now      func() time.Time
}

func NewUploadService(store storage.Store, log zerolog.Logger) *UploadService {
	return &UploadService{
		store:    store,
		log:      log,
		maxBytes: DefaultMaxUploadBytes,
		now:      time.Now,
	}
}

// Upload identifies the image by content, sanitises SVG and stores it.
// URL is empty when the store has no public address for the key.
func (s *UploadService) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	if input.File == nil {
		return UploadResult{}, badRequest("No image provided")
	}

	result, head, err := sniffer.Detect(input.File)
	if err != nil {
		if errors.Is(err, sniffer.ErrUnknownType) {
			return UploadResult{}, badRequest("Only image files are allowed")
		}
		return UploadResult{}, fmt.Errorf("read head: %w", err)
	}

	rest, err := io.ReadAll(io.LimitReader(input.File, s.maxBytes-int64(len(head))+1))
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}
	data := append(head, rest...)
	if int64(len(data)) > s.maxBytes {
		return UploadResult{}, newError(http.StatusRequestEntityTooLarge, "Image is too large")
	}

	if declared := sniffer.DeclaredMIME(http.Header(input.Header)); declared != "" && declared != result.MIME {
		return UploadResult{}, badRequest(fmt.Sprintf("Content type mismatch: declared %s, actual %s", declared, result.MIME))
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return UploadResult{}, badRequest("Invalid SVG image")
		}
		data = clean
	}

	key := path.Join(s.now().UTC().Format("2006/01/02"), ids.New()+"."+result.Extension())
	if err := s.store.Put(ctx, key, result.MIME, data); err != nil {
		return UploadResult{}, fmt.Errorf("store image: %w", err)
	}

	s.log.Info().Str("key", key).Str("user_id", input.Uploader.ID).Int("size", len(data)).Msg("image uploaded")
	return UploadResult{
		Key:         key,
		URL:         s.store.URL(key),
		ContentType: result.MIME,
		Size:        len(data),
	}, nil
}

// Open returns a stored image for serving.
func (s *UploadService) Open(ctx context.Context, key string) (storage.Object, error) {
	obj, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return storage.Object{}, notFound("Image not found")
		}
		return storage.Object{}, err
	}
	return obj, nil
}
