package poster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/raushankrgupta/listing-poster/compositor"
	"github.com/raushankrgupta/listing-poster/config"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers"
	"github.com/raushankrgupta/listing-poster/scrapers/base/basetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor map[string]error

func (f fakeExtractor) Extract(_ context.Context, url string) (*models.ExtractionResult, error) {
	if err, ok := f[url]; ok && err != nil {
		return nil, err
	}
	return &models.ExtractionResult{
		Photo:  basetest.Solid(20, 10, color.RGBA{R: 200, A: 255}),
		Price:  "$10.00",
		Source: "fake",
	}, nil
}

type identityCanon struct{}

func (identityCanon) Canonicalize(_ context.Context, raw string) string { return raw }

type composeCall struct{ price, qrURL, logoURL string }

type recordingComposer struct{ calls []composeCall }

func (r *recordingComposer) Compose(_ image.Image, price, qrURL, logoURL string) (*image.RGBA, error) {
	r.calls = append(r.calls, composeCall{price, qrURL, logoURL})
	return image.NewRGBA(image.Rect(0, 0, compositor.PostSize, compositor.PostSize)), nil
}

type fakePublisher struct{ keys []string }

func (f *fakePublisher) Publish(_ context.Context, body io.Reader, key string) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.keys = append(f.keys, key)
	return "https://bucket.example/" + key, nil
}

type fakeHistory struct{ records []models.PostRecord }

func (f *fakeHistory) Record(_ context.Context, rec models.PostRecord) error {
	f.records = append(f.records, rec)
	return nil
}

type scriptedFixer struct {
	fix   ManualFix
	ok    bool
	asked []string
}

func (s *scriptedFixer) Fix(_ context.Context, url string, _ error) (ManualFix, bool) {
	s.asked = append(s.asked, url)
	return s.fix, s.ok
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		OutputDir:   filepath.Join(t.TempDir(), "output"),
		HTTPTimeout: 5 * time.Second,
		UserAgent:   "listing-poster-test",
	}
}

func TestRunBatchContinuesPastFailures(t *testing.T) {
	cfg := testConfig(t)
	urls := []string{
		"https://www.depop.com/products/one/",
		"https://www.ebay.com/itm/broken",
		"https://poshmark.com/listing/three",
	}
	extractor := fakeExtractor{urls[1]: &models.NotFoundError{URL: urls[1], What: "product image"}}
	p := New(cfg, extractor, identityCanon{}, &recordingComposer{})

	report := p.RunBatch(context.Background(), urls)

	assert.Equal(t, 1, report.ExitCode())
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, []string{urls[0], urls[2]}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, urls[1], report.Failed[0].URL)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "instagram_post_1.jpg"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "instagram_post_2.jpg"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "instagram_post_3.jpg"))
}

func TestRunBatchAllSucceed(t *testing.T) {
	p := New(testConfig(t), fakeExtractor{}, identityCanon{}, &recordingComposer{})

	report := p.RunBatch(context.Background(), []string{"https://www.depop.com/products/a/"})
	assert.Equal(t, 0, report.ExitCode())

	empty := p.RunBatch(context.Background(), nil)
	assert.Equal(t, 1, empty.ExitCode())
}

func TestRunBatchRejectsInvalidLine(t *testing.T) {
	p := New(testConfig(t), fakeExtractor{}, identityCanon{}, &recordingComposer{})

	report := p.RunBatch(context.Background(), []string{"not a url"})
	require.Len(t, report.Failed, 1)
	var ie *models.InvalidInputError
	assert.True(t, errors.As(report.Failed[0].Err, &ie))
}

func TestProcessSingleUsesEffectiveURLForQR(t *testing.T) {
	cfg := testConfig(t)
	composer := &recordingComposer{}
	pin := "https://www.pinterest.com/pin/1/"
	dest := "https://shop.example.com/item/9"

	extractor := extractorFunc(func(context.Context, string) (*models.ExtractionResult, error) {
		return &models.ExtractionResult{Photo: basetest.Solid(5, 5, color.White), EffectiveURL: dest, Source: "pinterest"}, nil
	})
	history := &fakeHistory{}
	publisher := &fakePublisher{}
	p := New(cfg, extractor, identityCanon{}, composer, WithHistory(history), WithPublisher(publisher))

	ref, err := models.NewListingReference(pin, "")
	require.NoError(t, err)
	res, err := p.ProcessSingle(context.Background(), ref, 0)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cfg.OutputDir, "instagram_post.jpg"), res.OutputPath)
	require.Len(t, composer.calls, 1)
	assert.Equal(t, dest, composer.calls[0].qrURL)
	assert.Equal(t, "", composer.calls[0].price)

	require.Len(t, history.records, 1)
	rec := history.records[0]
	assert.Equal(t, pin, rec.SourceURL)
	assert.Equal(t, "pinterest.com", rec.Domain)
	assert.Equal(t, dest, rec.EffectiveURL)
	assert.Equal(t, "posts/"+rec.ID+".jpg", rec.S3Key)
	assert.Equal(t, []string{rec.S3Key}, publisher.keys)
	assert.Equal(t, "https://bucket.example/"+rec.S3Key, res.PublishedURL)
}

type extractorFunc func(context.Context, string) (*models.ExtractionResult, error)

func (f extractorFunc) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	return f(ctx, url)
}

func TestProcessSingleWithLocalPhotoSkipsExtraction(t *testing.T) {
	cfg := testConfig(t)
	photoPath := filepath.Join(t.TempDir(), "saved.png")
	require.NoError(t, os.WriteFile(photoPath, basetest.PNG(t, basetest.Solid(30, 30, color.Black)), 0o644))

	extractor := extractorFunc(func(context.Context, string) (*models.ExtractionResult, error) {
		t.Fatal("extractor must not run for a local photo")
		return nil, nil
	})
	composer := &recordingComposer{}
	p := New(cfg, extractor, identityCanon{}, composer)

	ref, err := models.NewListingReference("https://etsy.com/listing/1/ring", photoPath)
	require.NoError(t, err)
	res, err := p.ProcessSingle(context.Background(), ref, 0)
	require.NoError(t, err)
	assert.Equal(t, "local", res.Source)
	assert.Equal(t, "https://etsy.com/listing/1/ring", composer.calls[0].qrURL)
}

func TestProcessInteractiveManualFix(t *testing.T) {
	images := basetest.ImageServer(t)
	cfg := testConfig(t)
	url := "https://www.mercari.com/us/item/m1/"

	extractor := fakeExtractor{url: &models.NetworkError{URL: url, StatusCode: 403}}
	composer := &recordingComposer{}
	p := New(cfg, extractor, identityCanon{}, composer, WithImageClient(images.Client()))

	ref, err := models.NewListingReference(url, "")
	require.NoError(t, err)

	fixer := &scriptedFixer{fix: ManualFix{PhotoURL: images.URL + "/photo.png", Price: "24.5"}, ok: true}
	res, err := p.ProcessInteractive(context.Background(), ref, fixer)
	require.NoError(t, err)

	assert.Equal(t, []string{url}, fixer.asked)
	assert.Equal(t, "manual", res.Source)
	assert.Equal(t, "$24.50", res.Price)
	assert.Equal(t, url, composer.calls[0].qrURL)
	assert.FileExists(t, res.OutputPath)
}

func TestProcessInteractiveDeclined(t *testing.T) {
	url := "https://www.mercari.com/us/item/m1/"
	cause := &models.NetworkError{URL: url, StatusCode: 403}
	p := New(testConfig(t), fakeExtractor{url: cause}, identityCanon{}, &recordingComposer{})

	ref, _ := models.NewListingReference(url, "")
	_, err := p.ProcessInteractive(context.Background(), ref, &scriptedFixer{})
	assert.True(t, models.IsNetworkError(err))
}

func TestSaveIsAtomic(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, fakeExtractor{}, identityCanon{}, &recordingComposer{})

	path, err := p.Save(basetest.Solid(compositor.PostSize, compositor.PostSize, color.White), 4)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "instagram_post_4.jpg"), path)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasSuffix(entries[0].Name(), ".tmp"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestReadBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	content := "# weekend drops\nhttps://www.depop.com/products/a/\n\n   \nhttps://www.ebay.com/itm/1\n#https://skip.example\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := ReadBatchFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.depop.com/products/a/", "https://www.ebay.com/itm/1"}, urls)

	_, err = ReadBatchFile(filepath.Join(t.TempDir(), "missing.txt"))
	var ie *models.InvalidInputError
	assert.True(t, errors.As(err, &ie))
}

func TestPromptFixer(t *testing.T) {
	var out bytes.Buffer
	f := NewPromptFixer(strings.NewReader("y\nhttps://cdn.example/p.jpg\n$5\n"), &out)

	fix, ok := f.Fix(context.Background(), "https://x.example", nil)
	require.True(t, ok)
	assert.Equal(t, ManualFix{PhotoURL: "https://cdn.example/p.jpg", Price: "$5"}, fix)
	assert.Contains(t, out.String(), "Manual fix?")

	_, ok = NewPromptFixer(strings.NewReader("n\n"), io.Discard).Fix(context.Background(), "https://x.example", nil)
	assert.False(t, ok)
}

// End to end through the real dispatcher and compositor.
func endToEnd(t *testing.T, page string) (*Result, image.Image) {
	t.Helper()
	images := basetest.ImageServer(t)
	cfg := testConfig(t)
	url := "https://boutique.example.com/products/dress"

	static := &basetest.Fetcher{Pages: map[string]string{url: fmt.Sprintf(page, images.URL)}}
	dispatcher := scrapers.NewDispatcher(basetest.NewBaseScraper(static, nil, images))

	logoPath := filepath.Join(t.TempDir(), "default.png")
	require.NoError(t, os.WriteFile(logoPath, basetest.PNG(t, basetest.Solid(90, 30, color.RGBA{G: 160, A: 255})), 0o644))
	cfg.DefaultLogo = logoPath

	fonts, err := compositor.LoadFonts("")
	require.NoError(t, err)
	comp := compositor.NewWith(cfg, compositor.HighRecoveryEncoder{}, fonts)

	p := New(cfg, dispatcher, identityCanon{}, comp)
	ref, err := models.NewListingReference(url, "")
	require.NoError(t, err)

	res, err := p.ProcessSingle(context.Background(), ref, 0)
	require.NoError(t, err)

	f, err := os.Open(res.OutputPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, compositor.PostSize, compositor.PostSize), img.Bounds())
	return res, img
}

func isWhitish(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 220 && g>>8 > 220 && b>>8 > 220
}

func TestEndToEndWithPrice(t *testing.T) {
	res, img := endToEnd(t, `<meta property="og:image" content="%s/dress.png">
		<meta property="product:price:amount" content="49.99">`)

	assert.Equal(t, "$49.99", res.Price)
	assert.True(t, isWhitish(img.At(48, 1000)), "price badge expected")
}

func TestEndToEndWithoutPrice(t *testing.T) {
	res, img := endToEnd(t, `<meta property="og:image" content="%s/dress.png">`)

	assert.Empty(t, res.Price)
	assert.False(t, isWhitish(img.At(48, 1000)), "no price badge expected")

	r, g, b, _ := img.At(compositor.PostSize/2, compositor.PostSize-35-30).RGBA()
	assert.True(t, g>>8 > 120 && r>>8 < 60 && b>>8 < 60, "logo expected")
	assert.True(t, isWhitish(img.At(compositor.PostSize-35-248+12, compositor.PostSize-35-298+150)), "qr badge expected")
}

func TestRenderKeepsOutputDirUntouched(t *testing.T) {
	cfg := testConfig(t)
	history := &fakeHistory{}
	p := New(cfg, fakeExtractor{}, identityCanon{}, &recordingComposer{}, WithHistory(history))

	ref, err := models.NewListingReference("https://www.depop.com/products/a/", "")
	require.NoError(t, err)
	res, body, err := p.Render(context.Background(), ref)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, compositor.PostSize, img.Bounds().Dx())
	assert.Empty(t, res.OutputPath)
	require.Len(t, history.records, 1)
	assert.Equal(t, "depop.com", history.records[0].Domain)

	_, err = os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(err))
}
