package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bgatm/replay-engine/internal/storage"
	"github.com/bgatm/replay-engine/pkg/replay"
)

func listGames(client *http.Client, baseURL string) ([]storage.GameRecord, error) {
	resp, err := client.Get(baseURL + "/v1/replays")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to list games: %s", errorResp.Error)
	}

	var records []storage.GameRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse games response: %w", err)
	}
	return records, nil
}

func getReplay(client *http.Client, baseURL, tableID, perspective string) (*replay.GameReplay, []byte, error) {
	u := fmt.Sprintf("%s/v1/replays/%s?perspective=%s", baseURL, tableID, url.QueryEscape(perspective))
	resp, err := client.Get(u)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil {
			return nil, nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, nil, fmt.Errorf("failed to get replay: %s", errorResp.Error)
	}

	var g replay.GameReplay
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, nil, fmt.Errorf("failed to parse replay response: %w", err)
	}
	return &g, body, nil
}
