package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aouyang1/memoryframe/api/models"
	"github.com/aouyang1/memoryframe/imaging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxDownloadBytes  = 50 << 20
	maxDownloadPixels = 50_000_000
)

// handleDownload serves a gallery photo as jpeg or png. Whenever the photo cannot
// be fetched or converted the viewer is sent to the original instead.
func (ws *WebServer) handleDownload(c *gin.Context) {
	_, page, err := ws.activePage()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= len(page.Items) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: fmt.Sprintf("Photo %s not found", c.Param("index"))})
		return
	}
	item := page.Items[index]
	original := ws.resolveAsset(item.URL)

	format, err := imaging.ParseFormat(c.Query("format"))
	if err != nil {
		ws.logger.Warn("unsupported download format, redirecting", zap.String("format", c.Query("format")))
		c.Redirect(http.StatusFound, original)
		return
	}

	data, err := ws.fetchPhoto(c.Request.Context(), original, format)
	if err != nil {
		ws.logger.Warn("download conversion failed, redirecting to original",
			zap.String("url", original),
			zap.Error(err),
		)
		c.Redirect(http.StatusFound, original)
		return
	}

	filename := fmt.Sprintf("memory-%d%s", item.Position(), format.Ext())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), data)
}

func (ws *WebServer) resolveAsset(raw string) string {
	if ws.assetBase == nil {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return raw
	}
	return ws.assetBase.ResolveReference(u).String()
}

// fetchPhoto downloads the original and converts it unless its bytes are
// already in the requested format.
func (ws *WebServer) fetchPhoto(ctx context.Context, rawURL string, format imaging.Format) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("photo is larger than %d bytes", maxDownloadBytes)
	}

	cfg, source, err := imaging.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width*cfg.Height > maxDownloadPixels {
		return nil, fmt.Errorf("photo is %dx%d, too large to convert", cfg.Width, cfg.Height)
	}
	if source == format {
		return data, nil
	}

	var buf bytes.Buffer
	if err := imaging.Convert(bytes.NewReader(data), format, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
