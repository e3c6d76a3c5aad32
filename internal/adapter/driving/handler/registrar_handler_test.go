package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/rs/zerolog"

	"github.com/diillson/aws-macie-tagger-go/internal/application/usecase"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

func notificationProps(bucket string) map[string]interface{} {
	return map[string]interface{}{
		"ServiceToken": "arn:aws:lambda:us-east-1:123456789012:function:registrar",
		"BucketName":   bucket,
		"NotificationConfiguration": map[string]interface{}{
			"LambdaFunctionConfigurations": []interface{}{
				map[string]interface{}{
					"Id":                "tagging",
					"LambdaFunctionArn": "arn:aws:lambda:us-east-1:123456789012:function:tagger",
					"Events":            []interface{}{"s3:ObjectCreated:*"},
					"Filter": map[string]interface{}{
						"Key": map[string]interface{}{
							"FilterRules": []interface{}{
								map[string]interface{}{"Name": "prefix", "Value": "findings/"},
							},
						},
					},
				},
			},
		},
	}
}

func newRegistrarHandler(storage *fakeStorage) *RegistrarHandler {
	return NewRegistrarHandler(usecase.NewRegistrarUseCase(storage, zerolog.Nop()), zerolog.Nop(), false)
}

func TestRegistrarHandler_CreateUpdate(t *testing.T) {
	storage := newFakeStorage()
	h := newRegistrarHandler(storage)

	physicalID, data, err := h.Handle(context.Background(), cfn.Event{
		RequestType:        cfn.RequestCreate,
		ResourceProperties: notificationProps("results"),
	})
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if physicalID != "ResultsNotifications-results" || data["BucketName"] != "results" {
		t.Errorf("Create = %q, %v", physicalID, data)
	}
	cfg := storage.notifications["results"]
	if len(cfg.Targets) != 1 || cfg.Targets[0].Kind != "lambda" || cfg.Targets[0].Filters[0].Value != "findings/" {
		t.Errorf("stored config = %+v", cfg)
	}

	physicalID, _, err = h.Handle(context.Background(), cfn.Event{
		RequestType:           cfn.RequestUpdate,
		PhysicalResourceID:    physicalID,
		ResourceProperties:    notificationProps("results-v2"),
		OldResourceProperties: notificationProps("results"),
	})
	if err != nil {
		t.Fatalf("Update error = %v", err)
	}
	if physicalID != "ResultsNotifications-results-v2" {
		t.Errorf("bucket change must yield a new physical id, got %q", physicalID)
	}
}

func TestRegistrarHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		props   map[string]interface{}
		wantErr error
	}{
		{"missing bucket", map[string]interface{}{"NotificationConfiguration": map[string]interface{}{"EventBridgeConfiguration": map[string]interface{}{}}}, types.ErrMissingBucketName},
		{"missing configuration", map[string]interface{}{"BucketName": "results"}, types.ErrMissingNotificationConfig},
		{"empty configuration", map[string]interface{}{"BucketName": "results", "NotificationConfiguration": map[string]interface{}{}}, types.ErrMissingNotificationConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newRegistrarHandler(newFakeStorage()).Handle(context.Background(), cfn.Event{
				RequestType:        cfn.RequestCreate,
				ResourceProperties: tt.props,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistrarHandler_EventBridgeOnly(t *testing.T) {
	storage := newFakeStorage()
	_, _, err := newRegistrarHandler(storage).Handle(context.Background(), cfn.Event{
		RequestType: cfn.RequestCreate,
		ResourceProperties: map[string]interface{}{
			"BucketName":                "results",
			"NotificationConfiguration": map[string]interface{}{"EventBridgeConfiguration": map[string]interface{}{}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !storage.notifications["results"].EventBridge {
		t.Error("EventBridge configuration not forwarded")
	}
}

func TestRegistrarHandler_Delete(t *testing.T) {
	storage := newFakeStorage()
	h := newRegistrarHandler(storage)
	if _, _, err := h.Handle(context.Background(), cfn.Event{RequestType: cfn.RequestCreate, ResourceProperties: notificationProps("results")}); err != nil {
		t.Fatal(err)
	}

	physicalID, _, err := h.Handle(context.Background(), cfn.Event{
		RequestType:        cfn.RequestDelete,
		PhysicalResourceID: "ResultsNotifications-results",
		ResourceProperties: notificationProps("results"),
	})
	if err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if physicalID != "ResultsNotifications-results" {
		t.Errorf("Delete must keep the physical id, got %q", physicalID)
	}
	if !storage.notifications["results"].IsEmpty() {
		t.Errorf("notifications not cleared: %+v", storage.notifications["results"])
	}
}

func TestRegistrarHandler_DeleteEdgeCases(t *testing.T) {
	t.Run("never created", func(t *testing.T) {
		storage := newFakeStorage()
		storage.notifyErr = errors.New("must not be called")
		_, _, err := newRegistrarHandler(storage).Handle(context.Background(), cfn.Event{
			RequestType:        cfn.RequestDelete,
			PhysicalResourceID: "2024/01/01/[$LATEST]abcdef",
			ResourceProperties: map[string]interface{}{},
		})
		if err != nil {
			t.Errorf("Delete error = %v", err)
		}
	})

	t.Run("bucket gone", func(t *testing.T) {
		storage := newFakeStorage()
		storage.notifyErr = fmt.Errorf("put bucket notification: %w", types.ErrTargetGone)
		_, _, err := newRegistrarHandler(storage).Handle(context.Background(), cfn.Event{
			RequestType:        cfn.RequestDelete,
			PhysicalResourceID: "ResultsNotifications-results",
			ResourceProperties: notificationProps("results"),
		})
		if err != nil {
			t.Errorf("Delete error = %v", err)
		}
	})

	t.Run("access denied", func(t *testing.T) {
		storage := newFakeStorage()
		storage.notifyErr = errors.New("AccessDenied")
		_, _, err := newRegistrarHandler(storage).Handle(context.Background(), cfn.Event{
			RequestType:        cfn.RequestDelete,
			PhysicalResourceID: "ResultsNotifications-results",
			ResourceProperties: notificationProps("results"),
		})
		if err == nil {
			t.Error("expected error")
		}
	})
}
