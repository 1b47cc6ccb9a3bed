package backend

import (
	"context"
	"fmt"

	"github.com/kozaktomas/faceswap/internal/jobstatus"
)

type processRequest struct {
	VideoID string `json:"video_id"`
	ImageID string `json:"image_id"`
}

// processResponse covers both response shapes of /api/process.
type processResponse struct {
	TaskID  string `json:"task_id"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Submit requests processing of a previously uploaded video and face image.
func (c *Client) Submit(ctx context.Context, videoID, imageID string) (jobstatus.Submission, error) {
	var result processResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(processRequest{VideoID: videoID, ImageID: imageID}).
		SetResult(&result).
		Post("/api/process")
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	sub, err := jobstatus.ResolveSubmission(result.TaskID, result.JobID, result.Status, result.Message)
	if err != nil {
		return nil, err
	}
	c.log.WithField("task_id", result.TaskID).WithField("job_id", result.JobID).Debug("job submitted")
	return sub, nil
}
