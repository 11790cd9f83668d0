package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Test struct with validation tags
type testFeedRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	Platform   string `json:"platform" validate:"required,oneof=facebook pinterest"`
	Name       string `json:"name" validate:"required"`
}

// Feature: feed-platform, Property 41: Required field validation works
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeBusinessID bool, includePlatform bool, includeName bool) bool {
			reqMap := make(map[string]interface{})

			if includeBusinessID {
				reqMap["business_id"] = "biz-1"
			}
			if includePlatform {
				reqMap["platform"] = "facebook"
			}
			if includeName {
				reqMap["name"] = "My Feed"
			}

			allFieldsPresent := includeBusinessID && includePlatform && includeName

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var testReq testFeedRequest
			err := DecodeAndValidate(req, &testReq)

			if allFieldsPresent {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidationRejectsUnknownPlatform(t *testing.T) {
	reqMap := map[string]interface{}{
		"business_id": "biz-1",
		"platform":    "tiktok",
		"name":        "My Feed",
	}

	reqBody, _ := json.Marshal(reqMap)
	req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	var testReq testFeedRequest
	err := DecodeAndValidate(req, &testReq)
	if err == nil {
		t.Fatal("expected validation to fail for an unknown platform")
	}

	validationErrors := FormatValidationErrors(err)
	if len(validationErrors) == 0 {
		t.Fatal("expected formatted validation errors")
	}
	for _, ve := range validationErrors {
		if ve.Field == "" || ve.Message == "" {
			t.Errorf("validation error missing field or message: %+v", ve)
		}
	}
}

func TestValidationRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	var testReq testFeedRequest
	if err := DecodeAndValidate(req, &testReq); err == nil {
		t.Fatal("expected malformed JSON to be rejected")
	}
}
