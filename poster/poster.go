// Package poster runs the listing-to-post pipeline: extract, canonicalize,
// compose, save and optionally publish.
package poster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/listing-poster/config"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/utils"
)

// Extractor pulls the photo and price out of a listing URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (*models.ExtractionResult, error)
}

// Canonicalizer turns a listing URL into the link the QR code should carry.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, raw string) string
}

// Composer renders the final square post.
type Composer interface {
	Compose(photo image.Image, price, qrURL, logoURL string) (*image.RGBA, error)
}

// Publisher uploads a finished post and returns a shareable link.
type Publisher interface {
	Publish(ctx context.Context, body io.Reader, objectKey string) (string, error)
}

// History stores a record of every post.
type History interface {
	Record(ctx context.Context, rec models.PostRecord) error
}

// Result describes one generated post.
type Result struct {
	Image        *image.RGBA
	OutputPath   string
	QRURL        string
	Price        string
	Source       string
	PublishedURL string
	Record       models.PostRecord
}

type Poster struct {
	extractor Extractor
	canon     Canonicalizer
	composer  Composer

	outputDir   string
	imageClient *http.Client
	userAgent   string

	publisher Publisher
	history   History

	progress io.Writer
	logger   *slog.Logger
	now      func() time.Time
}

// Option customises a Poster.
type Option func(*Poster)

// WithPublisher uploads every saved post.
func WithPublisher(p Publisher) Option { return func(ps *Poster) { ps.publisher = p } }

// WithHistory records every saved post.
func WithHistory(h History) Option { return func(ps *Poster) { ps.history = h } }

// WithProgress prints step-by-step progress lines to w.
func WithProgress(w io.Writer) Option { return func(ps *Poster) { ps.progress = w } }

// WithImageClient sets the client used to download manually supplied photos.
func WithImageClient(c *http.Client) Option { return func(ps *Poster) { ps.imageClient = c } }

func New(cfg *config.Config, extractor Extractor, canon Canonicalizer, composer Composer, opts ...Option) *Poster {
	p := &Poster{
		extractor:   extractor,
		canon:       canon,
		composer:    composer,
		outputDir:   cfg.OutputDir,
		imageClient: &http.Client{Timeout: cfg.HTTPTimeout},
		userAgent:   cfg.UserAgent,
		progress:    io.Discard,
		logger:      slog.Default().With("component", "poster"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poster) step(index int, format string, args ...any) {
	label := ""
	if index > 0 {
		label = fmt.Sprintf("[%d] ", index)
	}
	fmt.Fprintf(p.progress, label+format+"\n", args...)
}

// Build runs the pipeline up to the composed image without writing anything.
func (p *Poster) Build(ctx context.Context, ref models.ListingReference, index int) (*Result, error) {
	var (
		photo  image.Image
		price  string
		source = "local"
		target = ref.URL
	)

	if ref.LocalPhotoPath != "" {
		p.step(index, "[1/5] Loading local image: %s", ref.LocalPhotoPath)
		img, err := utils.LoadImageFile(ref.LocalPhotoPath)
		if err != nil {
			return nil, err
		}
		photo = img
	} else {
		p.step(index, "[1/5] Fetching product image and price from URL...")
		res, err := p.extractor.Extract(ctx, ref.URL)
		if err != nil {
			return nil, err
		}
		photo, price, source = res.Photo, res.Price, res.Source
		target = res.TargetURL(ref.URL)
		if res.EffectiveURL != "" {
			p.step(index, "   Pin destination: %s", res.EffectiveURL)
		}
		if price != "" {
			p.step(index, "   Found price: %s", price)
		}
	}

	p.step(index, "[2/5] Resolving QR link...")
	qrURL := p.canon.Canonicalize(ctx, target)

	p.step(index, "[3/5] Formatting for Instagram (1:1 aspect ratio)...")
	p.step(index, "[4/5] Adding overlays...")
	img, err := p.composer.Compose(photo, price, qrURL, target)
	if err != nil {
		return nil, fmt.Errorf("compose post: %w", err)
	}

	effective := ""
	if target != ref.URL {
		effective = target
	}
	return &Result{
		Image:  img,
		QRURL:  qrURL,
		Price:  price,
		Source: source,
		Record: models.PostRecord{
			ID:           uuid.NewString(),
			SourceURL:    ref.URL,
			Domain:       ref.RegistrableDomain(),
			EffectiveURL: effective,
			QRURL:        qrURL,
			Price:        price,
			Strategy:     source,
			CreatedAt:    p.now().UTC(),
		},
	}, nil
}

// ProcessSingle turns one listing into a saved post. index 0 writes
// instagram_post.jpg, any other index writes instagram_post_<index>.jpg.
func (p *Poster) ProcessSingle(ctx context.Context, ref models.ListingReference, index int) (*Result, error) {
	res, err := p.Build(ctx, ref, index)
	if err != nil {
		return nil, err
	}
	return p.finish(ctx, res, index)
}

// ProcessManual builds a post from a user-supplied photo URL and price. The
// QR code points at the original listing.
func (p *Poster) ProcessManual(ctx context.Context, listingURL, photoURL, rawPrice string, index int) (*Result, error) {
	ref, err := models.NewListingReference(listingURL, "")
	if err != nil {
		return nil, err
	}

	photo, err := utils.DownloadImage(ctx, p.imageClient, photoURL, p.userAgent)
	if err != nil {
		return nil, fmt.Errorf("could not load image: %w", err)
	}
	price, _ := utils.NormalizePrice(rawPrice)

	qrURL := p.canon.Canonicalize(ctx, ref.URL)
	img, err := p.composer.Compose(photo, price, qrURL, ref.URL)
	if err != nil {
		return nil, fmt.Errorf("compose post: %w", err)
	}

	res := &Result{
		Image:  img,
		QRURL:  qrURL,
		Price:  price,
		Source: "manual",
		Record: models.PostRecord{
			ID:        uuid.NewString(),
			SourceURL: ref.URL,
			Domain:    ref.RegistrableDomain(),
			QRURL:     qrURL,
			Price:     price,
			Strategy:  "manual",
			CreatedAt: p.now().UTC(),
		},
	}
	return p.finish(ctx, res, index)
}

// ProcessInteractive is ProcessSingle that, on failure, asks fixer for a
// photo and price and retries through ProcessManual.
func (p *Poster) ProcessInteractive(ctx context.Context, ref models.ListingReference, fixer ManualFixer) (*Result, error) {
	res, err := p.ProcessSingle(ctx, ref, 0)
	if err == nil {
		return res, nil
	}

	var invalid *models.InvalidInputError
	if fixer == nil || errors.As(err, &invalid) {
		return nil, err
	}

	fix, ok := fixer.Fix(ctx, ref.URL, err)
	if !ok {
		return nil, err
	}
	return p.ProcessManual(ctx, ref.URL, fix.PhotoURL, fix.Price, 0)
}

// Render builds a post and encodes it in memory without touching the output
// directory. Publishing and history still apply.
func (p *Poster) Render(ctx context.Context, ref models.ListingReference) (*Result, []byte, error) {
	res, err := p.Build(ctx, ref, 0)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, res.Image); err != nil {
		return nil, nil, err
	}
	body := buf.Bytes()

	if p.publisher != nil {
		p.publish(ctx, res, bytes.NewReader(body))
	}
	p.record(ctx, res)
	return res, body, nil
}

func (p *Poster) finish(ctx context.Context, res *Result, index int) (*Result, error) {
	path, err := p.Save(res.Image, index)
	if err != nil {
		return nil, err
	}
	p.step(index, "[5/5] Saving as '%s'...", path)
	res.OutputPath = path
	res.Record.OutputPath = path

	if p.publisher != nil {
		if f, err := os.Open(path); err != nil {
			p.logger.Warn("publish failed", "path", path, "error", err)
		} else {
			p.publish(ctx, res, f)
			f.Close()
		}
	}
	p.record(ctx, res)

	p.logger.Info("post saved", "path", path, "source", res.Source, "qr_url", res.QRURL, "price", res.Price)
	return res, nil
}

// publish failures are logged; the post itself already exists.
func (p *Poster) publish(ctx context.Context, res *Result, body io.Reader) {
	key := "posts/" + res.Record.ID + ".jpg"
	link, err := p.publisher.Publish(ctx, body, key)
	if err != nil {
		p.logger.Warn("publish failed", "key", key, "error", err)
		return
	}
	res.PublishedURL = link
	res.Record.S3Key = key
}

func (p *Poster) record(ctx context.Context, res *Result) {
	if p.history == nil {
		return
	}
	if err := p.history.Record(ctx, res.Record); err != nil {
		p.logger.Warn("history record failed", "id", res.Record.ID, "error", err)
	}
}
