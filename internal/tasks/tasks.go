package tasks

import (
	"fmt"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

const (
	// TypeListingsScan triggers an on-demand marketplace scan cycle.
	TypeListingsScan = "listings:scan"

	// TypeNotifyBroadcast delivers a text to every registered user.
	TypeNotifyBroadcast = "notify:broadcast"
)

type BroadcastPayload struct {
	Text string `json:"text"`
}

func NewListingsScanTask() *asynq.Task {
	return asynq.NewTask(TypeListingsScan, nil)
}

func NewBroadcastTask(text string) (*asynq.Task, error) {
	payload, err := json.Marshal(BroadcastPayload{Text: text})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return asynq.NewTask(TypeNotifyBroadcast, payload), nil
}
