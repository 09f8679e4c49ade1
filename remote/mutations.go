package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/newssync/models"
)

// mutationPayload is the wire form of one locally-made change.
type mutationPayload struct {
	RecordID string `json:"record_id"`
	Field    string `json:"field"`
	Value    any    `json:"value"`
}

// PushMutations uploads locally-made changes (bookmark flips, sentiment
// edits) to the backend in one batch. Guest-mode mutations stay local: with
// no token there is nothing to push, and that is not an error.
func (g *HTTPGateway) PushMutations(ctx context.Context, mutations []models.Mutation) error {
	const op = "push mutations"
	if len(mutations) == 0 {
		return nil
	}
	if g.tokens != nil {
		token, err := g.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if token == "" {
			return nil
		}
	}

	payload := make([]mutationPayload, len(mutations))
	for i, m := range mutations {
		payload[i] = mutationPayload{RecordID: m.RecordID, Field: m.Field, Value: m.Value}
	}
	body, err := json.Marshal(struct {
		Mutations []mutationPayload `json:"mutations"`
	}{payload})
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/news/mutations", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := g.authorize(ctx, req); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return newTransportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return newServerError(op, resp.StatusCode, errorMessage(respBody))
	}
	return nil
}
