package fulfillment

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
)

// PhotoResult is the upload-photo response.
type PhotoResult struct {
	Success  bool   `json:"success"`
	PhotoURL string `json:"photo_url"`
	Error    string `json:"error"`
}

// ExtraBarcode is an alternate barcode registered for a product.
type ExtraBarcode struct {
	ID      int64  `json:"id"`
	Barcode string `json:"barcode"`
}

// MutationResult is the shared reply of the extra-barcode commands.
type MutationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type extraBarcodesResponse struct {
	Success       bool           `json:"success"`
	ExtraBarcodes []ExtraBarcode `json:"extra_barcodes"`
	Error         string         `json:"error"`
}

type addExtraBarcodeRequest struct {
	ProductID    int64  `json:"product_id"`
	BarcodeValue string `json:"barcode_value"`
}

// UploadPhoto posts an already compressed JPEG as the product photo.
func (c *Client) UploadPhoto(ctx context.Context, productID int64, fileName string, jpeg []byte) (PhotoResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="`+fileName+`"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return PhotoResult{}, err
	}
	if _, err := part.Write(jpeg); err != nil {
		return PhotoResult{}, err
	}
	if err := writer.Close(); err != nil {
		return PhotoResult{}, err
	}

	path := "products/api/upload-photo/" + strconv.FormatInt(productID, 10) + "/"
	req, err := c.newRequest(ctx, http.MethodPost, path, &body, writer.FormDataContentType())
	if err != nil {
		return PhotoResult{}, err
	}
	resp, err := c.do(req, "upload_photo")
	if err != nil {
		return PhotoResult{}, err
	}
	defer resp.Body.Close()

	var out PhotoResult
	if err := decodeJSON(resp, "upload_photo", &out); err != nil {
		return PhotoResult{}, err
	}
	return out, nil
}

// ExtraBarcodes lists a product's alternate barcodes.
func (c *Client) ExtraBarcodes(ctx context.Context, productID int64) ([]ExtraBarcode, error) {
	var out extraBarcodesResponse
	path := "products/api/extra-barcodes/" + strconv.FormatInt(productID, 10) + "/"
	if err := c.getJSON(ctx, "extra_barcodes", path, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("extra_barcodes: %s", firstNonEmpty(out.Error, "request failed"))
	}
	return out.ExtraBarcodes, nil
}

// AddExtraBarcode registers a new alternate barcode.
func (c *Client) AddExtraBarcode(ctx context.Context, productID int64, value string) (MutationResult, error) {
	var out MutationResult
	err := c.postJSON(ctx, "add_extra_barcode", "products/api/add-extra-barcode/", addExtraBarcodeRequest{ProductID: productID, BarcodeValue: value}, &out)
	return out, err
}

// DeleteExtraBarcode removes an alternate barcode by id.
func (c *Client) DeleteExtraBarcode(ctx context.Context, barcodeID int64) (MutationResult, error) {
	var out MutationResult
	path := "products/api/delete-extra-barcode/" + strconv.FormatInt(barcodeID, 10) + "/"
	err := c.postJSON(ctx, "delete_extra_barcode", path, nil, &out)
	return out, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
