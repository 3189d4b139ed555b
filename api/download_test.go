package api

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aouyang1/memoryframe/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedPhoto(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: 120, B: uint8(y * 80), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, encode(&buf, img))
	return buf.Bytes()
}

// hugePNGHeader is a png signature and IHDR chunk claiming 10000x10000 pixels.
func hugePNGHeader() []byte {
	ihdr := make([]byte, 17)
	copy(ihdr, "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:], 10000)
	binary.BigEndian.PutUint32(ihdr[8:], 10000)
	ihdr[12] = 8 // bit depth
	ihdr[13] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(ihdr)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr))
	return buf.Bytes()
}

func newAssetServer(t *testing.T) *httptest.Server {
	t.Helper()
	pngData := encodedPhoto(t, func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) })
	jpegData := encodedPhoto(t, func(b *bytes.Buffer, img image.Image) error { return jpeg.Encode(b, img, nil) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo.png":
			_, _ = w.Write(pngData)
		case "/photo.jpg":
			_, _ = w.Write(jpegData)
		case "/broken.jpg":
			_, _ = w.Write([]byte("not an image"))
		case "/huge.png":
			_, _ = w.Write(hugePNGHeader())
		case "/mislabeled.jpg":
			_, _ = w.Write(pngData)
		case "/large.jpg":
			_, _ = w.Write(jpegData)
			_, _ = w.Write(make([]byte, maxDownloadBytes))
		case "/proxy":
			if r.URL.Query().Get("key") == "events/huge.png" {
				_, _ = w.Write(hugePNGHeader())
				return
			}
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadConverts(t *testing.T) {
	assets := newAssetServer(t)
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{
		Gallery: []string{assets.URL + "/photo.png", assets.URL + "/photo.jpg"},
	}))
	ws := newTestServer(t, db)

	w := do(t, ws.Handler(), http.MethodGet, "/photos/0/download?format=jpeg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="memory-1.jpg"`, w.Header().Get("Content-Disposition"))
	_, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)

	w = do(t, ws.Handler(), http.MethodGet, "/photos/1/download?format=png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="memory-2.png"`, w.Header().Get("Content-Disposition"))
	_, err = png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
}

func TestDownloadPassesThroughSameFormat(t *testing.T) {
	assets := newAssetServer(t)
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{Gallery: []string{assets.URL + "/photo.jpg"}}))
	ws := newTestServer(t, db)

	resp, err := http.Get(assets.URL + "/photo.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	var original bytes.Buffer
	_, err = original.ReadFrom(resp.Body)
	require.NoError(t, err)

	w := do(t, ws.Handler(), http.MethodGet, "/photos/0/download?format=jpg", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, original.Bytes(), w.Body.Bytes())
}

func TestDownloadUsesContentNotExtension(t *testing.T) {
	assets := newAssetServer(t)
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{Gallery: []string{assets.URL + "/mislabeled.jpg"}}))
	ws := newTestServer(t, db)

	w := do(t, ws.Handler(), http.MethodGet, "/photos/0/download?format=jpeg", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	_, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)

	w = do(t, ws.Handler(), http.MethodGet, "/photos/0/download?format=png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	_, err = png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
}

func TestDownloadFallsBackToOriginal(t *testing.T) {
	assets := newAssetServer(t)
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{
		Gallery: []string{
			assets.URL + "/broken.jpg",
			assets.URL + "/gone.png",
			assets.URL + "/photo.png",
			assets.URL + "/huge.png",
			assets.URL + "/proxy?key=events/huge.png",
			assets.URL + "/large.jpg",
		},
	}))
	ws := newTestServer(t, db)

	tests := []struct {
		name     string
		target   string
		location string
	}{
		{"undecodable", "/photos/0/download?format=png", assets.URL + "/broken.jpg"},
		{"fetch failure", "/photos/1/download?format=jpeg", assets.URL + "/gone.png"},
		{"unsupported format", "/photos/2/download?format=webp", assets.URL + "/photo.png"},
		{"too many pixels", "/photos/3/download?format=jpeg", assets.URL + "/huge.png"},
		{"too many pixels same format", "/photos/3/download?format=png", assets.URL + "/huge.png"},
		{"too many pixels without extension", "/photos/4/download?format=jpeg", assets.URL + "/proxy?key=events/huge.png"},
		{"body over size limit", "/photos/5/download?format=jpeg", assets.URL + "/large.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, ws.Handler(), http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}
}

func TestDownloadUnknownPhoto(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{Gallery: []string{"a.jpg"}}))
	ws := newTestServer(t, db)

	for _, target := range []string{"/photos/1/download", "/photos/-1/download", "/photos/x/download"} {
		w := do(t, ws.Handler(), http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestDownloadResolvesRelativeURLs(t *testing.T) {
	assets := newAssetServer(t)
	base, err := url.Parse(assets.URL + "/")
	require.NoError(t, err)

	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{Gallery: []string{"photo.png"}}))
	ws := newTestServer(t, db, WithAssetBase(base))

	w := do(t, ws.Handler(), http.MethodGet, "/photos/0/download?format=jpeg", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}
