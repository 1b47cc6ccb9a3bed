package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kozaktomas/faceswap/internal/jobstatus"
)

// ErrMalformedStatus is returned when a successful status response does not
// carry a status record.
var ErrMalformedStatus = errors.New("malformed status response")

// FetchStatus reads the current status of a job by its task handle. The body
// is decoded whatever its content type; a body that is not a status record is
// reported as ErrMalformedStatus.
func (c *Client) FetchStatus(ctx context.Context, taskID string) (*jobstatus.Status, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("taskID", taskID).
		Get("/api/job/{taskID}")
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var st jobstatus.Status
	if err := json.Unmarshal(resp.Body(), &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
	}
	if st.Status == "" {
		return nil, fmt.Errorf("%w: no status field", ErrMalformedStatus)
	}
	return &st, nil
}
