package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/mmynk/compartilha/internal/middleware"
	"github.com/mmynk/compartilha/internal/models"
)

// CreateDivisionRequest is the body of POST /api/criar-divisao.
type CreateDivisionRequest struct {
	Items       []models.ItemInput `json:"itens"`
	PeopleNames []string           `json:"nomes_pessoas"`
	// Name is optional; the API names unnamed divisions itself.
	Name string `json:"nome,omitempty"`
}

type configRequest struct {
	FeePercent float64 `json:"taxa_servico_percentual"`
	Discount   float64 `json:"desconto_valor"`
}

type renameRequest struct {
	Name string `json:"nome"`
}

type distributeRequest struct {
	ItemID       string         `json:"item_id"`
	Distribution []models.Share `json:"distribuicao"`
}

type personRequest struct {
	Name string `json:"nome"`
}

func divisionPath(id string, rest ...string) string {
	p := "/api/divisao/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

// CreateDivision creates a division from items and participant names.
func (c *Client) CreateDivision(ctx context.Context, req CreateDivisionRequest) (models.Division, error) {
	if req.Items == nil {
		req.Items = []models.ItemInput{}
	}
	var d models.Division
	err := c.do(ctx, "create_division", http.MethodPost, "/api/criar-divisao", req, &d)
	return d, err
}

// CalculateTotals returns the authoritative per-person totals and progress.
func (c *Client) CalculateTotals(ctx context.Context, divisionID string) (models.Totals, error) {
	var t models.Totals
	err := c.do(ctx, "calculate_totals", http.MethodGet, "/api/calcular-totais/"+url.PathEscape(divisionID), nil, &t)
	return t, err
}

// UpdateConfig sets the service fee percentage and the flat discount.
func (c *Client) UpdateConfig(ctx context.Context, divisionID string, feePercent, discount float64) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "update_config", http.MethodPut, divisionPath(divisionID, "config"),
		configRequest{FeePercent: feePercent, Discount: discount}, &d)
	return d, err
}

// Rename changes the division name.
func (c *Client) Rename(ctx context.Context, divisionID, name string) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "rename", http.MethodPut, divisionPath(divisionID, "nome"), renameRequest{Name: name}, &d)
	return d, err
}

// DistributeItem replaces the allocation of one item.
func (c *Client) DistributeItem(ctx context.Context, divisionID, itemID string, shares []models.Share) (models.Division, error) {
	if shares == nil {
		shares = []models.Share{}
	}
	var d models.Division
	err := c.do(ctx, "distribute_item", http.MethodPost, "/api/distribuir-item/"+url.PathEscape(divisionID),
		distributeRequest{ItemID: itemID, Distribution: shares}, &d)
	return d, err
}

// AddItem appends an item to the division.
func (c *Client) AddItem(ctx context.Context, divisionID string, in models.ItemInput) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "add_item", http.MethodPost, divisionPath(divisionID, "item"), in, &d)
	return d, err
}

// EditItem replaces the name, quantity and unit price of an item.
func (c *Client) EditItem(ctx context.Context, divisionID, itemID string, in models.ItemInput) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "edit_item", http.MethodPut, divisionPath(divisionID, "item", itemID), in, &d)
	return d, err
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, divisionID, itemID string) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "delete_item", http.MethodDelete, divisionPath(divisionID, "item", itemID), nil, &d)
	return d, err
}

// AddPerson adds a participant.
func (c *Client) AddPerson(ctx context.Context, divisionID, name string) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "add_person", http.MethodPost, divisionPath(divisionID, "pessoa"), personRequest{Name: name}, &d)
	return d, err
}

// DeletePerson removes a participant and their allocations.
func (c *Client) DeletePerson(ctx context.Context, divisionID, personID string) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "delete_person", http.MethodDelete, divisionPath(divisionID, "pessoa", personID), nil, &d)
	return d, err
}

// Finalize marks the division as finished. The returned division is empty
// when the API answers without a body.
func (c *Client) Finalize(ctx context.Context, divisionID string) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "finalize", http.MethodPut, divisionPath(divisionID, "finalizar"), nil, &d)
	return d, err
}

// ListDivisions returns the user's divisions, newest first.
func (c *Client) ListDivisions(ctx context.Context) ([]models.Division, error) {
	divisions := []models.Division{}
	err := c.do(ctx, "list_divisions", http.MethodGet, "/api/divisoes", nil, &divisions)
	return divisions, err
}

// GetDivision fetches one division.
func (c *Client) GetDivision(ctx context.Context, divisionID string) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "get_division", http.MethodGet, divisionPath(divisionID), nil, &d)
	return d, err
}

// DeleteDivision removes a division.
func (c *Client) DeleteDivision(ctx context.Context, divisionID string) error {
	return c.do(ctx, "delete_division", http.MethodDelete, divisionPath(divisionID), nil, nil)
}

// DuplicateDivision copies a division into a new open one.
func (c *Client) DuplicateDivision(ctx context.Context, divisionID string) (models.Division, error) {
	var d models.Division
	err := c.do(ctx, "duplicate_division", http.MethodPost, divisionPath(divisionID, "duplicar"), nil, &d)
	return d, err
}

// ScanReceipt uploads a receipt image as the multipart field "file".
func (c *Client) ScanReceipt(ctx context.Context, filename, contentType string, data []byte) (models.ScanResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return models.ScanResult{}, fmt.Errorf("failed to build scan request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return models.ScanResult{}, fmt.Errorf("failed to build scan request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return models.ScanResult{}, fmt.Errorf("failed to build scan request: %w", err)
	}

	const op = "scan_receipt"
	req, err := http.NewRequestWithContext(middleware.WithOperation(ctx, op), http.MethodPost, c.baseURL+"/api/scan-comanda", &buf)
	if err != nil {
		return models.ScanResult{}, fmt.Errorf("failed to build scan request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var result models.ScanResult
	err = c.send(req, op, &result)
	return result, err
}
