package comparator

import (
	"encoding/json"
	"fmt"
)

// Job describes one comparison unit pulled from the platform's job
// list: a pair of artifacts, identified by batch id + message id, and
// which side(s) still need a summary posted (spec §4.5).
type Job struct {
	BatchID      string `json:"batchId"`
	SrcMessageID string `json:"srcMessageId"`
	DstMessageID string `json:"dstMessageId"`
	SrcProcessed bool   `json:"srcProcessed"`
	DstProcessed bool   `json:"dstProcessed"`
}

// ParseJobs decodes the platform's job-list response body.
func ParseJobs(body []byte) ([]Job, error) {
	var jobs []Job
	if err := json.Unmarshal(body, &jobs); err != nil {
		return nil, fmt.Errorf("decoding job list: %w", err)
	}
	return jobs, nil
}
