package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// Export modes. Blob: the backend streams the workbook. JSON: the backend
// stores it and answers {success, file_path}.
const (
	ExportModeBlob = "blob"
	ExportModeJSON = "json"
)

// ExportFile is the backend's answer to an export request. Data is set in
// blob mode, FilePath in JSON mode.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
	FilePath    string
}

type exportJSON struct {
	Success  bool   `json:"success"`
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

// Export requests the picklist spreadsheet and reads the answer the way mode
// says the backend delivers it. Any other mode is treated as blob.
func (c *Client) Export(ctx context.Context, picklist, mode string) (*ExportFile, error) {
	path := strings.ReplaceAll(c.exportPath, "{picklist}", url.PathEscape(picklist))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req, "export")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	isJSON := strings.HasPrefix(contentType, "application/json")

	if mode == ExportModeJSON {
		var out exportJSON
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("export: %w", ErrUnexpectedResponse)
		}
		if !out.Success || out.FilePath == "" {
			return nil, fmt.Errorf("export: %s", exportError(out.Error))
		}
		return &ExportFile{FilePath: out.FilePath}, nil
	}

	if isJSON {
		// A JSON body in blob mode is the backend reporting a failure.
		var out exportJSON
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Success {
			return nil, fmt.Errorf("export: json body in blob mode: %w", ErrUnexpectedResponse)
		}
		return nil, fmt.Errorf("export: %s", exportError(out.Error))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export: status %d: %w", resp.StatusCode, ErrUnexpectedResponse)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("export: read body: %w", err)
	}
	return &ExportFile{
		FileName:    attachmentName(resp.Header.Get("Content-Disposition"), picklist),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func exportError(msg string) string {
	if msg == "" {
		return "export failed"
	}
	return msg
}

func attachmentName(disposition, picklist string) string {
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := strings.TrimSpace(params["filename"]); name != "" {
			return name
		}
	}
	return "picklist-" + picklist + ".xlsx"
}
